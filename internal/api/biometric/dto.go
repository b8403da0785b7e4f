package biometric

const (
	StatusSuccess           = "success"
	StatusFail              = "fail"
	StatusNotFound          = "not_found"
	StatusRegistered        = "registered"
	StatusAlreadyRegistered = "already_registered"
)

type FaceImageRequest struct {
	Image string `json:"image" validate:"required"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// VerifyResult carries the signed session on a successful match.
type VerifyResult struct {
	Status    string
	UserID    string
	Token     string
	ExpiresAt int64
}
