package entity

import (
	"time"
)

type VoiceCommand struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	Page       string    `json:"page"`
	Transcript string    `json:"transcript"`
	Command    string    `json:"command"`
	Rule       string    `json:"rule"`
	Target     string    `json:"target"`
	ItemIndex  int       `json:"item_index"`
	Response   string    `json:"response"`
	Outcome    string    `json:"outcome"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	OutcomeOK             = "ok"
	OutcomeIgnored        = "ignored"
	OutcomeUnrecognized   = "unrecognized"
	OutcomeOutOfRange     = "out_of_range_index"
	OutcomeReadingMissing = "reading_target_missing"
)
