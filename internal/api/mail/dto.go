package mail

import "VoxMail/internal/entity"

type SendMailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type ReplyMailRequest struct {
	Message   string `json:"message" validate:"required"`
	MessageID string `json:"message_id" validate:"required"`
	ThreadID  string `json:"thread_id" validate:"required"`
}

// MailListResponse carries the listing and the per-item page links the
// browser hands to the voice controller as its context.
type MailListResponse struct {
	Emails []entity.MailSummary `json:"emails"`
	Links  []string             `json:"links"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
