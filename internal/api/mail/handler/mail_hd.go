package mailHandler

import (
	"VoxMail/internal/api/mail"
	contextPkg "VoxMail/pkg/context"
	"VoxMail/pkg/handlerUtil"
	jwtPkg "VoxMail/pkg/jwt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const gmailTimeout = 30 * time.Second

func (h *MailHandler) HandleListInbox(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), gmailTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
	}

	resp, err := h.mailService.ListInbox(c, session.UserID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_inbox")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *MailHandler) HandleListSent(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), gmailTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
	}

	resp, err := h.mailService.ListSent(c, session.UserID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_sent")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *MailHandler) HandleOpenInboxItem(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), gmailTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
	}

	index, err := strconv.Atoi(ctx.Params("index"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, mail.ErrItemOutOfRange, ctx.Path(), "parse_index")
	}

	msg, err := h.mailService.OpenInboxItem(c, session.UserID, index)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_inbox_item")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, msg)
	}
}

func (h *MailHandler) HandleOpenSent(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), gmailTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
	}

	msg, err := h.mailService.OpenSent(c, session.UserID, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_sent")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, msg)
	}
}

func (h *MailHandler) HandleSend(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), gmailTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
	}

	var req mail.SendMailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.mailService.Send(c, session.UserID, req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "send_mail")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, mail.StatusResponse{Status: "success"})
	}
}

func (h *MailHandler) HandleReply(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), gmailTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := jwtPkg.GetSessionData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Face verification required")
	}

	var req mail.ReplyMailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.mailService.Reply(c, session.UserID, req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "reply_mail")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, mail.StatusResponse{Status: "success"})
	}
}
