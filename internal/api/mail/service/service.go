package mailService

import (
	"VoxMail/internal/api/mail"
	mailRepository "VoxMail/internal/api/mail/repository"
	"VoxMail/internal/entity"
	"VoxMail/pkg/google"
	"VoxMail/pkg/metrics"
	"VoxMail/pkg/redis"
	"VoxMail/pkg/utils"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	labelInbox = "INBOX"
	labelSent  = "SENT"

	stateKeyPrefix = "gmail_oauth_state:"
	inboxKeyPrefix = "gmail_inbox:"
)

type IMailService interface {
	// EntryRedirect picks the page shown when the user opens Gmail.
	EntryRedirect(ctx context.Context, userID string) (string, error)
	BeginAuth(ctx context.Context, userID string) (string, error)
	CompleteAuth(ctx context.Context, state, code string) (string, error)

	ListInbox(ctx context.Context, userID string) (mail.MailListResponse, error)
	ListSent(ctx context.Context, userID string) (mail.MailListResponse, error)
	OpenInboxItem(ctx context.Context, userID string, index int) (entity.MailMessage, error)
	OpenSent(ctx context.Context, userID string, id string) (entity.MailMessage, error)

	Send(ctx context.Context, userID string, req mail.SendMailRequest) error
	Reply(ctx context.Context, userID string, req mail.ReplyMailRequest) error
}

type MailConfig struct {
	ListSize      int64
	InboxCacheTTL time.Duration
	StateTTL      time.Duration
}

type mailService struct {
	log            *logrus.Logger
	repo           mailRepository.Repository
	googleProvider google.ItfGoogle
	redisServer    redis.IRedis
	utils          utils.IUtils
	metrics        *metrics.Metrics
	config         MailConfig
}

func New(
	log *logrus.Logger,
	repo mailRepository.Repository,
	googleProvider google.ItfGoogle,
	redisServer redis.IRedis,
	utils utils.IUtils,
	m *metrics.Metrics,
	config *MailConfig,
) IMailService {
	cfg := MailConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.ListSize <= 0 {
		cfg.ListSize = 20
	}
	if cfg.InboxCacheTTL <= 0 {
		cfg.InboxCacheTTL = 30 * time.Minute
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}

	return &mailService{
		log:            log,
		repo:           repo,
		googleProvider: googleProvider,
		redisServer:    redisServer,
		utils:          utils,
		metrics:        m,
		config:         cfg,
	}
}
