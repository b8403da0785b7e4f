package mailHandler

import (
	contextPkg "VoxMail/pkg/context"
	"VoxMail/pkg/handlerUtil"
	jwtPkg "VoxMail/pkg/jwt"
	"VoxMail/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const callbackFailureRedirect = "/dashboard"

func (h *MailHandler) HandleGmailEntry(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
	}

	target, err := h.mailService.EntryRedirect(c, session.UserID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "gmail_entry")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return ctx.Redirect(target, fiber.StatusSeeOther)
	}
}

func (h *MailHandler) HandleGmailAuth(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
	}

	authURL, err := h.mailService.BeginAuth(c, session.UserID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "gmail_auth")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return ctx.Redirect(authURL, fiber.StatusTemporaryRedirect)
	}
}

// HandleGmailCallback is reached from Google's consent screen. Failures
// send the user back to the dashboard instead of an error page.
func (h *MailHandler) HandleGmailCallback(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	if reason := ctx.Query("error"); reason != "" {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"reason":     reason,
		}).Info("User denied Gmail access")
		return ctx.Redirect(callbackFailureRedirect, fiber.StatusSeeOther)
	}

	userID, err := h.mailService.CompleteAuth(c, ctx.Query("state"), ctx.Query("code"))
	if err != nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       ctx.Path(),
		}).Warn("Gmail OAuth callback failed")
		return ctx.Redirect(callbackFailureRedirect, fiber.StatusSeeOther)
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"user_id":    userID,
	}).Info("Gmail OAuth completed")

	return ctx.Redirect("/gmail_inbox", fiber.StatusSeeOther)
}
