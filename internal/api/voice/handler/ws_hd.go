package voiceHandler

import (
	"VoxMail/internal/api/voice"
	voiceService "VoxMail/internal/api/voice/service"
	"VoxMail/internal/entity"
	jwtPkg "VoxMail/pkg/jwt"
	"VoxMail/pkg/response"
	"VoxMail/pkg/speech"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const (
	wsRequestIDKey = "voice_request_id"
	wsReadTimeout  = 5 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

type jsonConn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
}

// wsTerminal forwards controller output to the browser as JSON messages.
type wsTerminal struct {
	conn jsonConn
	mu   sync.Mutex
	log  *logrus.Logger
}

func newWSTerminal(conn jsonConn, log *logrus.Logger) *wsTerminal {
	return &wsTerminal{conn: conn, log: log}
}

func (t *wsTerminal) send(msg voice.ServerMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	if err := t.conn.WriteJSON(msg); err != nil {
		t.log.WithFields(logrus.Fields{
			"type":  msg.Type,
			"error": err.Error(),
		}).Warn("Failed to write voice message")
		return err
	}
	return nil
}

func (t *wsTerminal) Speak(u *speech.Utterance) error {
	return t.send(voice.ServerMessage{
		Type:        voice.ServerSpeak,
		UtteranceID: u.ID,
		Text:        u.Text,
		Rate:        u.Rate,
		Lang:        u.Lang,
	})
}

func (t *wsTerminal) Cancel() error {
	return t.send(voice.ServerMessage{Type: voice.ServerCancelSpeech})
}

func (t *wsTerminal) Start(session uint64) error {
	return t.send(voice.ServerMessage{Type: voice.ServerListen, Session: session})
}

func (t *wsTerminal) Abort() error {
	return t.send(voice.ServerMessage{Type: voice.ServerAbortListening})
}

func (t *wsTerminal) Navigate(url string) error {
	return t.send(voice.ServerMessage{Type: voice.ServerNavigate, URL: url})
}

func (t *wsTerminal) Perform(action string) error {
	return t.send(voice.ServerMessage{Type: voice.ServerPerform, Action: action})
}

func (t *wsTerminal) SendError(err error) {
	msg := err.Error()
	var respErr *response.Error
	if !errors.As(err, &respErr) && !errors.Is(err, speech.ErrRecognitionUnavailable) && !errors.Is(err, speech.ErrAlreadyArmed) {
		msg = "internal error"
	}
	_ = t.send(voice.ServerMessage{Type: voice.ServerError, Error: msg})
}

func (h *VoiceHandler) handleWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(wsRequestIDKey).(string)

	var userID string
	if session, ok := c.Locals(jwtPkg.SessionLocalsKey).(entity.SessionData); ok {
		userID = session.UserID
	}

	sessionID, err := h.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate voice session ID")
		return
	}

	logger := h.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
	})
	logger.Info("Voice terminal connected")
	defer logger.Info("Voice terminal disconnected")

	term := newWSTerminal(c, h.log)
	ctl := h.voiceService.NewController(term, voiceService.Session{
		ID:        sessionID,
		UserID:    userID,
		RequestID: requestID,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := ctl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Warn("Voice controller stopped")
		}
	}()
	defer func() {
		ctl.Close()
		<-loopDone
	}()

	for {
		if err := c.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			logger.WithError(err).Error("Error setting read deadline")
			break
		}

		messageType, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Warn("Voice websocket error")
			}
			break
		}

		if messageType != websocket.TextMessage {
			logger.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		var msg voice.ClientMessage
		if err := jsoniter.Unmarshal(data, &msg); err != nil {
			term.SendError(voice.ErrInvalidMessage)
			continue
		}
		if err := h.validator.Struct(msg); err != nil {
			term.SendError(voice.ErrInvalidMessage)
			continue
		}

		ctl.Post(func() {
			if err := ctl.HandleMessage(msg); err != nil {
				logger.WithFields(logrus.Fields{
					"type":  msg.Type,
					"error": err.Error(),
				}).Debug("Voice message rejected")
				term.SendError(err)
			}
		})
	}
}
