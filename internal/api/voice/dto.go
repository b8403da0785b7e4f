package voice

import (
	"VoxMail/pkg/nlp"
	"time"
)

// Message types sent by the browser over the voice websocket.
const (
	ClientContext          = "context"
	ClientArm              = "arm"
	ClientResult           = "result"
	ClientRecognitionEnd   = "recognition_end"
	ClientRecognitionError = "recognition_error"
	ClientSpeechEnd        = "speech_end"
	ClientUnsupported      = "unsupported"
	ClientActionResult     = "action_result"
)

// Message types sent to the browser over the voice websocket.
const (
	ServerSpeak          = "speak"
	ServerCancelSpeech   = "cancel_speech"
	ServerListen         = "listen"
	ServerAbortListening = "abort_listening"
	ServerNavigate       = "navigate"
	ServerPerform        = "perform"
	ServerError          = "error"
)

type ClientMessage struct {
	Type        string           `json:"type" validate:"required"`
	Context     *nlp.PageContext `json:"context,omitempty"`
	Session     uint64           `json:"session,omitempty"`
	Transcript  string           `json:"transcript,omitempty"`
	UtteranceID uint64           `json:"utterance_id,omitempty"`
	Error       string           `json:"error,omitempty"`
	Action      string           `json:"action,omitempty"`
	Status      string           `json:"status,omitempty"`
}

type ServerMessage struct {
	Type        string  `json:"type"`
	UtteranceID uint64  `json:"utterance_id,omitempty"`
	Text        string  `json:"text,omitempty"`
	Rate        float64 `json:"rate,omitempty"`
	Lang        string  `json:"lang,omitempty"`
	Session     uint64  `json:"session,omitempty"`
	URL         string  `json:"url,omitempty"`
	Action      string  `json:"action,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type InterpretRequest struct {
	Transcript string            `json:"transcript"`
	Page       string            `json:"page" validate:"required"`
	Email      *nlp.EmailContext `json:"email,omitempty"`
	Links      []string          `json:"links,omitempty"`
	Reading    bool              `json:"reading"`
	Paused     bool              `json:"paused"`
}

type InterpretResponse struct {
	Kind    string             `json:"kind"`
	Target  string             `json:"target,omitempty"`
	Index   int                `json:"index"`
	Action  string             `json:"action,omitempty"`
	Message string             `json:"message,omitempty"`
	Rule    string             `json:"rule,omitempty"`
	Error   string             `json:"error,omitempty"`
	Then    *InterpretResponse `json:"then,omitempty"`
}

type VoiceCommandHistory struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Page       string    `json:"page"`
	Transcript string    `json:"transcript"`
	Command    string    `json:"command"`
	Rule       string    `json:"rule,omitempty"`
	Target     string    `json:"target,omitempty"`
	ItemIndex  int       `json:"item_index"`
	Response   string    `json:"response,omitempty"`
	Outcome    string    `json:"outcome"`
	CreatedAt  time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Commands []VoiceCommandHistory `json:"commands"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	Limit    int                   `json:"limit"`
}
