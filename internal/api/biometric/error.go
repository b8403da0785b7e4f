package biometric

import (
	"VoxMail/pkg/response"
	"errors"
)

// ErrFaceEncoderUnavailable is returned when the face encoding service
// cannot be reached.
var ErrFaceEncoderUnavailable = errors.New("face encoder unavailable")

var (
	ErrInvalidImage       = response.NewError(400, "image must be a JPEG or PNG data URL")
	ErrUserNotFound       = response.NewError(404, "user not found")
	ErrSnapshotUploadFail = response.NewError(502, "failed to store face snapshot")
)
