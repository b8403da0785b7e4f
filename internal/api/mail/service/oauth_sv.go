package mailService

import (
	"VoxMail/internal/api/mail"
	"VoxMail/internal/entity"
	contextPkg "VoxMail/pkg/context"
	"VoxMail/pkg/redis"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *mailService) EntryRedirect(ctx context.Context, userID string) (string, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return "", err
	}

	if _, err := repo.Accounts.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, mail.ErrGmailNotLinked) {
			return "/gmail_auth", nil
		}
		return "", err
	}
	return "/gmail_inbox", nil
}

// BeginAuth stores a one-time state bound to userID and returns the
// Google consent URL.
func (s *mailService) BeginAuth(ctx context.Context, userID string) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	state, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return "", err
	}

	if err := s.redisServer.Set(ctx, stateKeyPrefix+state, userID, s.config.StateTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to store oauth state")
		return "", err
	}

	return s.googleProvider.AuthCodeURL(state), nil
}

// CompleteAuth consumes the state, exchanges the code and links the Gmail
// account to the user the state was issued for.
func (s *mailService) CompleteAuth(ctx context.Context, state, code string) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if state == "" {
		return "", mail.ErrInvalidOAuthState
	}

	userID, err := s.redisServer.Get(ctx, stateKeyPrefix+state)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return "", mail.ErrInvalidOAuthState
		}
		return "", err
	}
	if err := s.redisServer.Delete(ctx, stateKeyPrefix+state); err != nil {
		return "", err
	}

	if code == "" {
		return "", mail.ErrMissingAuthCode
	}

	tok, err := s.googleProvider.Exchange(ctx, code)
	s.metrics.RecordGmailRequest("exchange", err)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to exchange oauth code")
		return "", mail.ErrGmailRequestFailed
	}

	box, err := s.googleProvider.Mailbox(ctx, tok)
	if err != nil {
		return "", s.gmailErr(ctx, "profile", err)
	}
	email, err := box.Profile(ctx)
	s.metrics.RecordGmailRequest("profile", err)
	if err != nil {
		return "", s.gmailErr(ctx, "profile", err)
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return "", err
	}
	if err := repo.Accounts.UpsertAccount(ctx, entity.GmailAccount{
		UserID:       userID,
		Email:        email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}); err != nil {
		return "", err
	}
	s.dropInboxCache(ctx, userID)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    userID,
	}).Info("Gmail account linked")

	return userID, nil
}
