package entity

import "time"

type GmailAccount struct {
	UserID       string    `db:"user_id"`
	Email        string    `db:"email"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	TokenType    string    `db:"token_type"`
	Expiry       time.Time `db:"expiry"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type MailSummary struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id,omitempty"`
	Subject  string `json:"subject"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Date     string `json:"date,omitempty"`
}

type MailMessage struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	Subject  string `json:"subject"`
	From     string `json:"from"`
	To       string `json:"to,omitempty"`
	Body     string `json:"body"`
}
