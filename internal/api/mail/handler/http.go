package mailHandler

import (
	mailService "VoxMail/internal/api/mail/service"
	"VoxMail/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type MailHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	mailService mailService.IMailService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ms mailService.IMailService,
) *MailHandler {
	return &MailHandler{
		log:         log,
		validator:   validate,
		middleware:  middleware,
		mailService: ms,
	}
}

func (h *MailHandler) Start(srv fiber.Router) {
	srv.Get("/gmail", h.middleware.NewSessionMiddleware, h.HandleGmailEntry)
	srv.Get("/gmail_auth", h.middleware.NewSessionMiddleware, h.HandleGmailAuth)
	srv.Get("/gmail_callback", h.HandleGmailCallback)

	mail := srv.Group("/mail", h.middleware.NewSessionMiddleware)
	mail.Get("/inbox", h.HandleListInbox)
	mail.Get("/inbox/:index", h.HandleOpenInboxItem)
	mail.Get("/sent", h.HandleListSent)
	mail.Get("/sent/:id", h.HandleOpenSent)
	mail.Post("/send", h.middleware.NewRateLimiter, h.HandleSend)
	mail.Post("/reply", h.middleware.NewRateLimiter, h.HandleReply)
}
