package biometricHandler

import (
	"VoxMail/internal/api/biometric"
	contextPkg "VoxMail/pkg/context"
	"VoxMail/pkg/handlerUtil"
	jwtPkg "VoxMail/pkg/jwt"
	"VoxMail/pkg/log"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *BiometricHandler) HandleVerify(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req biometric.FaceImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	// A missing image is reported the same way as a frame with no face.
	if err := h.validator.Struct(req); err != nil {
		return ctx.Status(fiber.StatusOK).JSON(biometric.StatusResponse{Status: biometric.StatusFail})
	}

	result, err := h.biometricService.Verify(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "verify_face")
	}

	if result.Status == biometric.StatusSuccess {
		ctx.Cookie(&fiber.Cookie{
			Name:     jwtPkg.SessionCookieName,
			Value:    result.Token,
			Path:     "/",
			Expires:  time.Unix(result.ExpiresAt, 0),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, biometric.StatusResponse{Status: result.Status})
	}
}

func (h *BiometricHandler) HandleRegister(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req biometric.FaceImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return ctx.Status(fiber.StatusOK).JSON(biometric.StatusResponse{Status: biometric.StatusFail})
	}

	status, err := h.biometricService.Register(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "register_face")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, biometric.StatusResponse{Status: status})
	}
}

func (h *BiometricHandler) HandleGetSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
	}

	if err := h.biometricService.UserExists(c, session.UserID); err != nil {
		if errors.Is(err, biometric.ErrUserNotFound) {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"user_id":    session.UserID,
			}).Warn("Session refers to a deleted user")
			ctx.ClearCookie(jwtPkg.SessionCookieName)
			return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
		}
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_session")
	}

	resp := fiber.Map{
		"user_id":            session.UserID,
		"biometric_verified": session.BiometricVerified,
	}
	if snapshot, err := h.biometricService.SnapshotURL(c, session.UserID); err != nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to presign face snapshot")
	} else if snapshot != "" {
		resp["snapshot_url"] = snapshot
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *BiometricHandler) HandleLogout(ctx *fiber.Ctx) error {
	h.log.WithFields(log.Fields{
		"request_id": h.middleware.GetRequestID(ctx),
	}).Info("User logged out")

	ctx.ClearCookie(jwtPkg.SessionCookieName)
	return ctx.Redirect("/", fiber.StatusSeeOther)
}
