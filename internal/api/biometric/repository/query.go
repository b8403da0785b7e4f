package biometricRepository

const (
	queryCreateUser = `
		INSERT INTO users (
			id, face_encoding, snapshot_key, created_at
		) VALUES (
			:id, :face_encoding, :snapshot_key, :created_at
		)
	`

	queryGetUserByID = `
		SELECT id, face_encoding, snapshot_key, created_at
		FROM users
		WHERE id = :id
	`

	queryGetFaceEncodings = `
		SELECT id, face_encoding, snapshot_key, created_at
		FROM users
		WHERE face_encoding IS NOT NULL
		ORDER BY created_at ASC
	`

	queryUpdateSnapshotKey = `
		UPDATE users
		SET snapshot_key = :snapshot_key
		WHERE id = :id
	`
)
