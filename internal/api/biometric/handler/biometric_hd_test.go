package biometricHandler

import (
	"VoxMail/internal/api/biometric"
	"VoxMail/internal/entity"
	jwtPkg "VoxMail/pkg/jwt"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeMiddleware struct {
	session *entity.SessionData
}

func (m *fakeMiddleware) NewRateLimiter(ctx *fiber.Ctx) error { return ctx.Next() }

func (m *fakeMiddleware) NewSessionMiddleware(ctx *fiber.Ctx) error {
	if m.session == nil {
		return ctx.SendStatus(fiber.StatusUnauthorized)
	}
	ctx.Locals(jwtPkg.SessionLocalsKey, *m.session)
	return ctx.Next()
}

func (m *fakeMiddleware) NewOptionalSessionMiddleware(ctx *fiber.Ctx) error { return ctx.Next() }

func (m *fakeMiddleware) NewRequestIDMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error { return ctx.Next() }
}

func (m *fakeMiddleware) GetRequestID(ctx *fiber.Ctx) string { return "test-request" }

type fakeBiometricService struct {
	verify    biometric.VerifyResult
	register  string
	err       error
	existsErr error
	snapshot  string
}

func (f *fakeBiometricService) Verify(ctx context.Context, req biometric.FaceImageRequest) (biometric.VerifyResult, error) {
	return f.verify, f.err
}

func (f *fakeBiometricService) Register(ctx context.Context, req biometric.FaceImageRequest) (string, error) {
	return f.register, f.err
}

func (f *fakeBiometricService) UserExists(ctx context.Context, userID string) error {
	return f.existsErr
}

func (f *fakeBiometricService) SnapshotURL(ctx context.Context, userID string) (string, error) {
	return f.snapshot, nil
}

func newTestApp(mw *fakeMiddleware, svc *fakeBiometricService) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder: jsoniter.Marshal,
		JSONDecoder: jsoniter.Unmarshal,
	})
	New(quietLogger(), validator.New(), mw, svc).Start(app.Group("/api/v1"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, biometric.StatusResponse, []string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var got biometric.StatusResponse
	_ = jsoniter.Unmarshal(data, &got)
	return resp.StatusCode, got, resp.Header.Values("Set-Cookie")
}

func TestHandleVerify(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *fakeBiometricService
		wantCode   int
		wantStatus string
		wantCookie bool
	}{
		{
			name:       "success sets session cookie",
			body:       `{"image":"data:image/png;base64,AAAA"}`,
			svc:        &fakeBiometricService{verify: biometric.VerifyResult{Status: biometric.StatusSuccess, Token: "signed", ExpiresAt: time.Now().Add(time.Hour).Unix()}},
			wantCode:   fiber.StatusOK,
			wantStatus: biometric.StatusSuccess,
			wantCookie: true,
		},
		{
			name:       "not found",
			body:       `{"image":"data:image/png;base64,AAAA"}`,
			svc:        &fakeBiometricService{verify: biometric.VerifyResult{Status: biometric.StatusNotFound}},
			wantCode:   fiber.StatusOK,
			wantStatus: biometric.StatusNotFound,
		},
		{
			name:       "missing image",
			body:       `{}`,
			svc:        &fakeBiometricService{},
			wantCode:   fiber.StatusOK,
			wantStatus: biometric.StatusFail,
		},
		{
			name:       "encoder unavailable",
			body:       `{"image":"data:image/png;base64,AAAA"}`,
			svc:        &fakeBiometricService{err: fmt.Errorf("%w: refused", biometric.ErrFaceEncoderUnavailable)},
			wantCode:   fiber.StatusServiceUnavailable,
			wantStatus: "error",
		},
		{
			name:     "invalid image",
			body:     `{"image":"nope"}`,
			svc:      &fakeBiometricService{err: biometric.ErrInvalidImage},
			wantCode: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeMiddleware{}, tt.svc)

			code, got, cookies := postJSON(t, app, "/api/v1/biometric/verify", tt.body)
			if code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", code, tt.wantCode)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.Status, tt.wantStatus)
			}

			hasCookie := false
			for _, c := range cookies {
				if strings.HasPrefix(c, jwtPkg.SessionCookieName+"=signed") && strings.Contains(strings.ToLower(c), "httponly") {
					hasCookie = true
				}
			}
			if hasCookie != tt.wantCookie {
				t.Errorf("session cookie set = %v, want %v (%v)", hasCookie, tt.wantCookie, cookies)
			}
		})
	}
}

func TestHandleRegister(t *testing.T) {
	app := newTestApp(&fakeMiddleware{}, &fakeBiometricService{register: biometric.StatusAlreadyRegistered})

	code, got, _ := postJSON(t, app, "/api/v1/biometric/register", `{"image":"data:image/png;base64,AAAA"}`)
	if code != fiber.StatusOK || got.Status != biometric.StatusAlreadyRegistered {
		t.Errorf("got %d %+v", code, got)
	}
}

func TestHandleGetSession(t *testing.T) {
	session := &entity.SessionData{UserID: "user-1", BiometricVerified: true}

	t.Run("valid", func(t *testing.T) {
		app := newTestApp(&fakeMiddleware{session: session}, &fakeBiometricService{snapshot: "https://signed"})
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/biometric/session", nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("status = %d", resp.StatusCode)
		}
		data, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(data), `"snapshot_url":"https://signed"`) {
			t.Errorf("body %s", data)
		}
	})

	t.Run("deleted user", func(t *testing.T) {
		app := newTestApp(&fakeMiddleware{session: session}, &fakeBiometricService{existsErr: biometric.ErrUserNotFound})
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/biometric/session", nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})
}

func TestHandleLogout(t *testing.T) {
	app := newTestApp(&fakeMiddleware{}, &fakeBiometricService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/logout", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Errorf("got %d to %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	cleared := false
	for _, c := range resp.Header.Values("Set-Cookie") {
		if strings.HasPrefix(c, jwtPkg.SessionCookieName+"=") && strings.Contains(c, "expires=") {
			cleared = true
		}
	}
	if !cleared {
		t.Errorf("session cookie not cleared: %v", resp.Header.Values("Set-Cookie"))
	}
}
