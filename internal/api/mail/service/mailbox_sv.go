package mailService

import (
	"VoxMail/internal/api/mail"
	"VoxMail/internal/entity"
	contextPkg "VoxMail/pkg/context"
	"VoxMail/pkg/google"
	"VoxMail/pkg/redis"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// mailbox opens the user's Gmail with a valid token. A refreshed token is
// written back; a revoked one unlinks the account.
func (s *mailService) mailbox(ctx context.Context, userID string) (google.Mailbox, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	account, err := repo.Accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stored := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		TokenType:    account.TokenType,
		Expiry:       account.Expiry,
	}

	fresh, err := s.googleProvider.Refresh(ctx, stored)
	if err != nil {
		s.metrics.RecordGmailRequest("refresh", err)
		if google.IsRevoked(err) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    userID,
			}).Warn("Gmail token revoked, unlinking account")

			if delErr := repo.Accounts.DeleteByUserID(ctx, userID); delErr != nil {
				return nil, delErr
			}
			s.dropInboxCache(ctx, userID)
			return nil, mail.ErrGmailReauthRequired
		}
		return nil, s.gmailErr(ctx, "refresh", err)
	}

	if fresh.AccessToken != stored.AccessToken {
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = stored.RefreshToken
		}
		account.AccessToken = fresh.AccessToken
		account.RefreshToken = fresh.RefreshToken
		account.TokenType = fresh.TokenType
		account.Expiry = fresh.Expiry

		if err := repo.Accounts.UpdateToken(ctx, account); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to save refreshed Gmail token")
		}
	}

	return s.googleProvider.Mailbox(ctx, fresh)
}

func (s *mailService) gmailErr(ctx context.Context, operation string, err error) error {
	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"operation":  operation,
		"error":      err.Error(),
	}).Error("Gmail request failed")

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return mail.ErrMessageNotFound
	}
	return mail.ErrGmailRequestFailed
}

func (s *mailService) dropInboxCache(ctx context.Context, userID string) {
	if err := s.redisServer.Delete(ctx, inboxKeyPrefix+userID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Failed to drop inbox cache")
	}
}

// ListInbox fetches the newest inbox messages and caches the listing so
// items can later be opened by position.
func (s *mailService) ListInbox(ctx context.Context, userID string) (mail.MailListResponse, error) {
	box, err := s.mailbox(ctx, userID)
	if err != nil {
		return mail.MailListResponse{}, err
	}

	ids, err := box.ListMessageIDs(ctx, labelInbox, s.config.ListSize)
	s.metrics.RecordGmailRequest("list_inbox", err)
	if err != nil {
		return mail.MailListResponse{}, s.gmailErr(ctx, "list_inbox", err)
	}

	emails := make([]entity.MailSummary, 0, len(ids))
	links := make([]string, 0, len(ids))
	for i, id := range ids {
		msg, err := box.GetMessage(ctx, id, "metadata", "Subject", "From", "Date")
		s.metrics.RecordGmailRequest("get_metadata", err)
		if err != nil {
			return mail.MailListResponse{}, s.gmailErr(ctx, "get_metadata", err)
		}

		emails = append(emails, entity.MailSummary{
			ID:       id,
			ThreadID: msg.ThreadId,
			Subject:  findHeader(msg.Payload, "Subject"),
			From:     findHeader(msg.Payload, "From"),
			Date:     formatDate(findHeader(msg.Payload, "Date")),
		})
		links = append(links, fmt.Sprintf("/open_email/%d", i))
	}

	if err := s.redisServer.SetJSON(ctx, inboxKeyPrefix+userID, emails, s.config.InboxCacheTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Failed to cache inbox listing")
	}

	return mail.MailListResponse{Emails: emails, Links: links}, nil
}

func (s *mailService) ListSent(ctx context.Context, userID string) (mail.MailListResponse, error) {
	box, err := s.mailbox(ctx, userID)
	if err != nil {
		return mail.MailListResponse{}, err
	}

	ids, err := box.ListMessageIDs(ctx, labelSent, s.config.ListSize)
	s.metrics.RecordGmailRequest("list_sent", err)
	if err != nil {
		return mail.MailListResponse{}, s.gmailErr(ctx, "list_sent", err)
	}

	emails := make([]entity.MailSummary, 0, len(ids))
	links := make([]string, 0, len(ids))
	for _, id := range ids {
		msg, err := box.GetMessage(ctx, id, "full")
		s.metrics.RecordGmailRequest("get_full", err)
		if err != nil {
			return mail.MailListResponse{}, s.gmailErr(ctx, "get_full", err)
		}

		subject := findHeader(msg.Payload, "Subject")
		if subject == "" {
			subject = "(no subject)"
		}
		to := findHeader(msg.Payload, "To")
		if to == "" {
			to = "Unknown"
		}

		emails = append(emails, entity.MailSummary{
			ID:       id,
			ThreadID: msg.ThreadId,
			Subject:  subject,
			To:       to,
			Date:     formatDate(findHeader(msg.Payload, "Date")),
		})
		links = append(links, "/open_sent/"+id)
	}

	return mail.MailListResponse{Emails: emails, Links: links}, nil
}

// OpenInboxItem opens the index-th message (zero based) of the cached
// listing, reloading the listing when the cache has expired.
func (s *mailService) OpenInboxItem(ctx context.Context, userID string, index int) (entity.MailMessage, error) {
	var cached []entity.MailSummary
	if err := s.redisServer.GetJSON(ctx, inboxKeyPrefix+userID, &cached); err != nil {
		if !errors.Is(err, redis.ErrNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"error":      err.Error(),
			}).Warn("Failed to read inbox cache")
		}
		listing, err := s.ListInbox(ctx, userID)
		if err != nil {
			return entity.MailMessage{}, err
		}
		cached = listing.Emails
	}

	if index < 0 || index >= len(cached) {
		return entity.MailMessage{}, mail.ErrItemOutOfRange
	}

	box, err := s.mailbox(ctx, userID)
	if err != nil {
		return entity.MailMessage{}, err
	}

	msg, err := box.GetMessage(ctx, cached[index].ID, "full")
	s.metrics.RecordGmailRequest("get_full", err)
	if err != nil {
		return entity.MailMessage{}, s.gmailErr(ctx, "get_full", err)
	}

	return entity.MailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  findHeader(msg.Payload, "Subject"),
		From:     findHeader(msg.Payload, "From"),
		Body:     extractBody(msg.Payload),
	}, nil
}

func (s *mailService) OpenSent(ctx context.Context, userID string, id string) (entity.MailMessage, error) {
	box, err := s.mailbox(ctx, userID)
	if err != nil {
		return entity.MailMessage{}, err
	}

	msg, err := box.GetMessage(ctx, id, "full")
	s.metrics.RecordGmailRequest("get_full", err)
	if err != nil {
		return entity.MailMessage{}, s.gmailErr(ctx, "get_full", err)
	}

	to := findHeader(msg.Payload, "To")
	return entity.MailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  findHeader(msg.Payload, "Subject"),
		From:     "To: " + to,
		To:       to,
		Body:     extractBody(msg.Payload),
	}, nil
}

func (s *mailService) Send(ctx context.Context, userID string, req mail.SendMailRequest) error {
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Body) == "" {
		return mail.ErrMissingFields
	}

	box, err := s.mailbox(ctx, userID)
	if err != nil {
		return err
	}

	raw, err := buildRawMessage(req.To, req.Subject, req.Body)
	if err != nil {
		return err
	}

	err = box.Send(ctx, raw, "")
	s.metrics.RecordGmailRequest("send", err)
	if err != nil {
		return s.gmailErr(ctx, "send", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"user_id":    userID,
	}).Info("Mail sent")
	return nil
}

// Reply answers the sender of req.MessageID inside the same thread.
func (s *mailService) Reply(ctx context.Context, userID string, req mail.ReplyMailRequest) error {
	box, err := s.mailbox(ctx, userID)
	if err != nil {
		return err
	}

	original, err := box.GetMessage(ctx, req.MessageID, "metadata", "Subject", "From", "Message-ID")
	s.metrics.RecordGmailRequest("get_metadata", err)
	if err != nil {
		return s.gmailErr(ctx, "get_metadata", err)
	}

	to := findHeader(original.Payload, "From")
	if to == "" {
		return mail.ErrMissingFields
	}

	ref := findHeader(original.Payload, "Message-ID")
	if ref == "" {
		ref = req.MessageID
	}

	raw, err := buildRawMessage(to, replySubject(findHeader(original.Payload, "Subject")), req.Message,
		header{name: "In-Reply-To", value: ref},
		header{name: "References", value: ref},
	)
	if err != nil {
		return err
	}

	err = box.Send(ctx, raw, req.ThreadID)
	s.metrics.RecordGmailRequest("reply", err)
	if err != nil {
		return s.gmailErr(ctx, "reply", err)
	}
	return nil
}
