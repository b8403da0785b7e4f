package voiceHandler

import (
	voiceService "VoxMail/internal/api/voice/service"
	"VoxMail/internal/middleware"
	"VoxMail/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type VoiceHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	voiceService voiceService.IVoiceService
	utils        utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	vs voiceService.IVoiceService,
	utils utils.IUtils,
) *VoiceHandler {
	return &VoiceHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		voiceService: vs,
		utils:        utils,
	}
}

func (h *VoiceHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals(wsRequestIDKey, h.middleware.GetRequestID(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	voice := srv.Group("/voice")

	// The speech terminal runs on every page, including the ones shown
	// before face verification.
	voice.Use("/ws", h.middleware.NewOptionalSessionMiddleware, wsMiddleware)
	voice.Get("/ws", websocket.New(h.handleWebSocket))

	voice.Post("/interpret", h.middleware.NewRateLimiter, h.Interpret)
	voice.Get("/commands", h.GetCommandTable)
	voice.Get("/history", h.middleware.NewSessionMiddleware, h.GetVoiceHistory)
}
