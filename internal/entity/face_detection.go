package entity

const (
	FaceStatusOK     = "ok"
	FaceStatusNoFace = "no_face"
)

// FaceEncodingResult is the reply of the face encoder for one frame.
type FaceEncodingResult struct {
	Status    string      `json:"status"`
	Faces     int         `json:"faces"`
	Encodings [][]float64 `json:"encodings"`
	Error     string      `json:"error,omitempty"`
}

// First returns the encoding of the first detected face.
func (r FaceEncodingResult) First() ([]float64, bool) {
	if len(r.Encodings) == 0 || len(r.Encodings[0]) == 0 {
		return nil, false
	}
	return r.Encodings[0], true
}
