package voice

import "VoxMail/pkg/response"

var (
	ErrInvalidPage          = response.NewError(400, "unknown page kind")
	ErrInvalidMessage       = response.NewError(400, "invalid voice message")
	ErrUnknownMessageType   = response.NewError(400, "unknown voice message type")
	ErrCommandTableNotFound = response.NewError(500, "command table unavailable")
	ErrHistoryUnavailable   = response.NewError(500, "failed to load voice history")
	ErrUpgradeRequired      = response.NewError(426, "websocket upgrade required")
)

var (
	ErrContextRequired     = response.NewError(409, "page context must be sent before arming")
	ErrUnknownActionResult = response.NewError(400, "unknown page action result")
)
