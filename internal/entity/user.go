package entity

import "time"

// User is a person registered by face. The encoding is the 128-value
// vector returned by the face encoder.
type User struct {
	ID           string    `db:"id"`
	FaceEncoding []float64 `db:"face_encoding"`
	SnapshotKey  string    `db:"snapshot_key"`
	CreatedAt    time.Time `db:"created_at"`
}

type SessionData struct {
	UserID            string
	BiometricVerified bool
}
