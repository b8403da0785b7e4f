package biometricHandler

import (
	biometricService "VoxMail/internal/api/biometric/service"
	"VoxMail/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type BiometricHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	biometricService biometricService.IBiometricService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	bs biometricService.IBiometricService,
) *BiometricHandler {
	return &BiometricHandler{
		log:              log,
		validator:        validate,
		middleware:       middleware,
		biometricService: bs,
	}
}

func (h *BiometricHandler) Start(srv fiber.Router) {
	bio := srv.Group("/biometric")
	bio.Post("/verify", h.middleware.NewRateLimiter, h.HandleVerify)
	bio.Post("/register", h.middleware.NewRateLimiter, h.HandleRegister)
	bio.Get("/session", h.middleware.NewSessionMiddleware, h.HandleGetSession)

	srv.Get("/logout", h.HandleLogout)
}
