package jwtPkg

import (
	"VoxMail/internal/entity"
	"errors"
	"fmt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"os"
	"strings"
	"time"
)

const (
	SessionSecretEnv  = "JWT_SESSION_SECRET"
	SessionCookieName = "voxmail_session"
	SessionLocalsKey  = "session"
)

var (
	ErrMissingToken     = errors.New("missing session token")
	ErrInvalidClaims    = errors.New("session token claims are invalid")
	ErrSecretNotDefined = fmt.Errorf("%s not set", SessionSecretEnv)
)

func Sign(Data map[string]interface{}, ExpiredAt time.Duration) (string, int64, error) {
	expiredAt := time.Now().Add(ExpiredAt).Unix()

	JWTSecretKey := os.Getenv(SessionSecretEnv)
	if JWTSecretKey == "" {
		return "", 0, ErrSecretNotDefined
	}

	claims := jwt.MapClaims{}
	claims["exp"] = expiredAt

	for i, v := range Data {
		claims[i] = v
	}

	logrus.WithField("claims", claims).Debug("Creating token with claims")

	to := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := to.SignedString([]byte(JWTSecretKey))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, expiredAt, nil
}

// SignSession issues the token stored in the session cookie after a
// successful face verification.
func SignSession(userID string, ttl time.Duration) (string, int64, error) {
	return Sign(map[string]interface{}{
		"id":                 userID,
		"biometric_verified": true,
	}, ttl)
}

// TokenFromRequest returns the session token from the Authorization
// header or, failing that, from the session cookie.
func TokenFromRequest(c *fiber.Ctx) (string, error) {
	if header := c.Get("Authorization"); header != "" {
		parts := strings.Split(header, "Bearer ")
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			return "", errors.New("invalid Authorization format")
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if cookie := c.Cookies(SessionCookieName); cookie != "" {
		return cookie, nil
	}
	return "", ErrMissingToken
}

func VerifyToken(accessToken string, secretEnvKey string) (*jwt.Token, error) {
	log := logrus.WithField("func", "VerifyToken")

	JWTSecretKey := os.Getenv(secretEnvKey)
	if JWTSecretKey == "" {
		log.Error("Session secret environment variable not set")
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.WithField("method", token.Header["alg"]).Error("Unexpected signing method")
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(JWTSecretKey), nil
	})

	if err != nil {
		log.WithError(err).Debug("Failed to parse JWT token")
		return nil, err
	}

	return token, nil
}

// ParseSession verifies accessToken and extracts the session it carries.
func ParseSession(accessToken string) (entity.SessionData, error) {
	token, err := VerifyToken(accessToken, SessionSecretEnv)
	if err != nil {
		return entity.SessionData{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.SessionData{}, ErrInvalidClaims
	}

	userID, _ := claims["id"].(string)
	verified, _ := claims["biometric_verified"].(bool)
	if userID == "" || !verified {
		return entity.SessionData{}, ErrInvalidClaims
	}

	return entity.SessionData{
		UserID:            userID,
		BiometricVerified: verified,
	}, nil
}

func GetSessionData(c *fiber.Ctx) (entity.SessionData, error) {
	sessionData := c.Locals(SessionLocalsKey)

	session, ok := sessionData.(entity.SessionData)
	if !ok {
		return entity.SessionData{}, fiber.ErrUnauthorized
	}

	return session, nil
}
