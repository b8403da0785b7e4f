package voiceHandler

import (
	"VoxMail/internal/api/voice"
	contextPkg "VoxMail/pkg/context"
	"VoxMail/pkg/handlerUtil"
	jwtPkg "VoxMail/pkg/jwt"
	"VoxMail/pkg/log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *VoiceHandler) Interpret(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing interpret request")

	var req voice.InterpretRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.voiceService.Interpret(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "interpret")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *VoiceHandler) GetCommandTable(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	table := h.voiceService.GetCommandTable(c)
	if len(table.Rules) == 0 {
		return errHandler.Handle(ctx, requestID, voice.ErrCommandTableNotFound, ctx.Path(), "get_command_table")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, table)
}

func (h *VoiceHandler) GetVoiceHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing get voice history request")

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	page, err := strconv.Atoi(ctx.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(ctx.Query("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	history, total, err := h.voiceService.GetVoiceHistory(c, session.UserID, page, limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_voice_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, voice.HistoryResponse{
			Commands: history,
			Total:    total,
			Page:     page,
			Limit:    limit,
		})
	}
}
