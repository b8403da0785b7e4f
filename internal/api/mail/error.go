package mail

import (
	"VoxMail/pkg/response"
	"errors"
)

// ErrGmailReauthRequired means the stored refresh token was revoked. The
// account link has already been removed when it is returned.
var ErrGmailReauthRequired = errors.New("GMAIL_REAUTH_REQUIRED")

var (
	ErrGmailNotLinked     = response.NewError(409, "gmail account not connected")
	ErrInvalidOAuthState  = response.NewError(400, "invalid oauth state")
	ErrMissingAuthCode    = response.NewError(400, "no authorization code provided")
	ErrItemOutOfRange     = response.NewError(404, "That item number does not exist")
	ErrMissingFields      = response.NewError(400, "recipient and body are required")
	ErrGmailRequestFailed = response.NewError(502, "gmail request failed")
	ErrMessageNotFound    = response.NewError(404, "message not found")
)
