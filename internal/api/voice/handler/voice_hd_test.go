package voiceHandler

import (
	"VoxMail/internal/api/voice"
	voiceService "VoxMail/internal/api/voice/service"
	"VoxMail/internal/entity"
	jwtPkg "VoxMail/pkg/jwt"
	"VoxMail/pkg/nlp"
	"VoxMail/pkg/speech"
	"VoxMail/pkg/utils"
	"context"
	"errors"
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

// fakeMiddleware lets every request through and, when session is set,
// attaches it as if a valid cookie had been sent.
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

type fakeVoiceService struct {
	interpreter nlp.IInterpreter
	history     []voice.VoiceCommandHistory
	historyErr  error
	gotUser     string
	gotPage     int
	gotLimit    int
}

func (f *fakeVoiceService) Interpret(ctx context.Context, req voice.InterpretRequest) (*voice.InterpretResponse, error) {
	if !nlp.PageKind(req.Page).Valid() {
		return nil, voice.ErrInvalidPage
	}
	cmd := f.interpreter.Interpret(req.Transcript, nlp.PageContext{Page: nlp.PageKind(req.Page), Links: req.Links}, nlp.ReadingStatus{})
	return &voice.InterpretResponse{Kind: string(cmd.Kind), Target: cmd.Target, Index: cmd.Index, Message: cmd.Message}, nil
}

func (f *fakeVoiceService) GetCommandTable(ctx context.Context) nlp.CommandTable {
	return f.interpreter.Table()
}

func (f *fakeVoiceService) GetVoiceHistory(ctx context.Context, userID string, page, limit int) ([]voice.VoiceCommandHistory, int, error) {
	f.gotUser, f.gotPage, f.gotLimit = userID, page, limit
	return f.history, len(f.history), f.historyErr
}

func (f *fakeVoiceService) RecordCommand(ctx context.Context, cmd entity.VoiceCommand) {}

func (f *fakeVoiceService) NewController(term voiceService.Terminal, sess voiceService.Session, opts ...voiceService.ControllerOption) *voiceService.Controller {
	return voiceService.NewController(term, f.interpreter, quietLogger(), sess, opts...)
}

func newTestApp(t *testing.T, mw *fakeMiddleware, svc *fakeVoiceService) *fiber.App {
	t.Helper()
	interpreter, err := nlp.NewDefaultInterpreter()
	if err != nil {
		t.Fatal(err)
	}
	svc.interpreter = interpreter

	app := fiber.New(fiber.Config{
		JSONEncoder: jsoniter.Marshal,
		JSONDecoder: jsoniter.Unmarshal,
	})
	h := New(quietLogger(), validator.New(), mw, svc, utils.New())
	h.Start(app.Group("/api/v1"))
	return app
}

func decode(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if err := jsoniter.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func TestInterpretEndpoint(t *testing.T) {
	app := newTestApp(t, &fakeMiddleware{}, &fakeVoiceService{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKind   string
		wantTarget string
	}{
		{
			name:       "open second email",
			body:       `{"transcript":"open second email","page":"gmail_inbox","links":["/a","/b","/c"]}`,
			wantStatus: fiber.StatusOK,
			wantKind:   string(nlp.CommandOpenItemByIndex),
			wantTarget: "/b",
		},
		{
			name:       "logout",
			body:       `{"transcript":"Log out please","page":"dashboard"}`,
			wantStatus: fiber.StatusOK,
			wantKind:   string(nlp.CommandLogout),
			wantTarget: "/logout",
		},
		{
			name:       "missing page",
			body:       `{"transcript":"logout"}`,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "unknown page",
			body:       `{"transcript":"logout","page":"garage"}`,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"transcript":`,
			wantStatus: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/voice/interpret", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != fiber.StatusOK {
				return
			}

			var got voice.InterpretResponse
			decode(t, resp.Body, &got)
			if got.Kind != tt.wantKind || got.Target != tt.wantTarget {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestCommandTableEndpoint(t *testing.T) {
	app := newTestApp(t, &fakeMiddleware{}, &fakeVoiceService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/voice/commands", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var table nlp.CommandTable
	decode(t, resp.Body, &table)
	if len(table.Rules) == 0 || table.Rules[0].ID != "reading_stop" {
		t.Errorf("unexpected table %+v", table.Rules)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("requires session", func(t *testing.T) {
		app := newTestApp(t, &fakeMiddleware{}, &fakeVoiceService{})

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/voice/history", nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	t.Run("lists commands", func(t *testing.T) {
		svc := &fakeVoiceService{history: []voice.VoiceCommandHistory{{ID: "01", Transcript: "logout", CreatedAt: time.Now()}}}
		app := newTestApp(t, &fakeMiddleware{session: &entity.SessionData{UserID: "user-1", BiometricVerified: true}}, svc)

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/voice/history?page=2&limit=500", nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var got voice.HistoryResponse
		decode(t, resp.Body, &got)
		if got.Total != 1 || got.Page != 2 || got.Limit != 20 {
			t.Errorf("got %+v", got)
		}
		if svc.gotUser != "user-1" {
			t.Errorf("history loaded for %q", svc.gotUser)
		}
	})

	t.Run("service failure", func(t *testing.T) {
		svc := &fakeVoiceService{historyErr: voice.ErrHistoryUnavailable}
		app := newTestApp(t, &fakeMiddleware{session: &entity.SessionData{UserID: "user-1"}}, svc)

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/voice/history", nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	app := newTestApp(t, &fakeMiddleware{}, &fakeVoiceService{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/voice/ws", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

type recordingConn struct {
	messages []voice.ServerMessage
	writeErr error
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.messages = append(c.messages, v.(voice.ServerMessage))
	return nil
}

func (c *recordingConn) SetWriteDeadline(t time.Time) error { return nil }

func TestWSTerminalMessages(t *testing.T) {
	conn := &recordingConn{}
	term := newWSTerminal(conn, quietLogger())

	_ = term.Speak(&speech.Utterance{ID: 3, Text: "Opening Gmail.", Rate: 0.95, Lang: "en-US"})
	_ = term.Cancel()
	_ = term.Start(7)
	_ = term.Abort()
	_ = term.Navigate("/gmail")
	_ = term.Perform("verify")
	term.SendError(voice.ErrInvalidPage)
	term.SendError(errors.New("database password leaked"))

	want := []voice.ServerMessage{
		{Type: voice.ServerSpeak, UtteranceID: 3, Text: "Opening Gmail.", Rate: 0.95, Lang: "en-US"},
		{Type: voice.ServerCancelSpeech},
		{Type: voice.ServerListen, Session: 7},
		{Type: voice.ServerAbortListening},
		{Type: voice.ServerNavigate, URL: "/gmail"},
		{Type: voice.ServerPerform, Action: "verify"},
		{Type: voice.ServerError, Error: voice.ErrInvalidPage.Error()},
		{Type: voice.ServerError, Error: "internal error"},
	}

	if len(conn.messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(conn.messages), len(want))
	}
	for i := range want {
		if conn.messages[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, conn.messages[i], want[i])
		}
	}
}

func TestWSTerminalWriteError(t *testing.T) {
	term := newWSTerminal(&recordingConn{writeErr: errors.New("closed")}, quietLogger())

	if err := term.Navigate("/dashboard"); err == nil {
		t.Error("expected write error to be returned")
	}
}
