package middleware

import (
	jwtPkg "VoxMail/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// NewSessionMiddleware rejects requests without a verified face session.
func (m *middleware) NewSessionMiddleware(ctx *fiber.Ctx) error {
	token, err := jwtPkg.TokenFromRequest(ctx)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"path":       ctx.Path(),
			"error":      err.Error(),
		}).Debug("Session token missing")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized, face verification required",
		})
	}

	session, err := jwtPkg.ParseSession(token)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"path":       ctx.Path(),
			"error":      err.Error(),
		}).Warn("Session verification failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized, face verification required",
		})
	}

	ctx.Locals(jwtPkg.SessionLocalsKey, session)
	return ctx.Next()
}

// NewOptionalSessionMiddleware attaches the session when one is present
// and lets anonymous requests through.
func (m *middleware) NewOptionalSessionMiddleware(ctx *fiber.Ctx) error {
	token, err := jwtPkg.TokenFromRequest(ctx)
	if err != nil {
		return ctx.Next()
	}
	if session, err := jwtPkg.ParseSession(token); err == nil {
		ctx.Locals(jwtPkg.SessionLocalsKey, session)
	}
	return ctx.Next()
}
