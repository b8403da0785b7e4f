package biometricService

import (
	"VoxMail/internal/api/biometric"
	"VoxMail/internal/entity"
	contextPkg "VoxMail/pkg/context"
	jwtPkg "VoxMail/pkg/jwt"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// encode decodes the data URL and asks the face encoder for the first
// face in it. ok is false when the frame holds no face.
func (s *biometricService) encode(ctx context.Context, dataURL string) (img []byte, contentType, format string, enc []float64, ok bool, err error) {
	requestID := contextPkg.GetRequestID(ctx)

	decoded, err := s.utils.DecodeImageDataURL(dataURL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Rejected face image")
		return nil, "", "", nil, false, biometric.ErrInvalidImage
	}

	result, err := s.faceEncoder.Encode(decoded.Data)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Face encoder request failed")
		return nil, "", "", nil, false, fmt.Errorf("%w: %v", biometric.ErrFaceEncoderUnavailable, err)
	}

	enc, ok = result.First()
	return decoded.Data, decoded.ContentType, decoded.Format, enc, ok, nil
}

func (s *biometricService) Verify(ctx context.Context, req biometric.FaceImageRequest) (biometric.VerifyResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	_, _, _, live, ok, err := s.encode(ctx, req.Image)
	if err != nil {
		s.metrics.RecordFaceCheck("verify", "error")
		return biometric.VerifyResult{}, err
	}
	if !ok {
		s.metrics.RecordFaceCheck("verify", biometric.StatusFail)
		return biometric.VerifyResult{Status: biometric.StatusFail}, nil
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return biometric.VerifyResult{}, err
	}

	users, err := repo.Users.GetFaceEncodings(ctx)
	if err != nil {
		return biometric.VerifyResult{}, err
	}

	user, dist, matched := matchFace(users, live, s.config.MatchThreshold)
	if !matched {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"candidates": len(users),
			"distance":   dist,
		}).Info("No registered face matched")
		s.metrics.RecordFaceCheck("verify", biometric.StatusNotFound)
		return biometric.VerifyResult{Status: biometric.StatusNotFound}, nil
	}

	token, exp, err := jwtPkg.SignSession(user.ID, s.config.SessionTTL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to sign session")
		return biometric.VerifyResult{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
		"distance":   dist,
	}).Info("Face verified")
	s.metrics.RecordFaceCheck("verify", biometric.StatusSuccess)

	return biometric.VerifyResult{
		Status:    biometric.StatusSuccess,
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

// Register stores a new face unless it already matches a registered one.
// The user row and the snapshot upload commit together.
func (s *biometricService) Register(ctx context.Context, req biometric.FaceImageRequest) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	img, contentType, format, enc, ok, err := s.encode(ctx, req.Image)
	if err != nil {
		s.metrics.RecordFaceCheck("register", "error")
		return "", err
	}
	if !ok {
		s.metrics.RecordFaceCheck("register", biometric.StatusFail)
		return biometric.StatusFail, nil
	}

	repo, err := s.repo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return "", err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := repo.Rollback(); rbErr != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"error":      rbErr.Error(),
				}).Error("Failed to rollback transaction")
			}
		}
	}()

	users, err := repo.Users.GetFaceEncodings(ctx)
	if err != nil {
		return "", err
	}
	if _, _, dup := matchFace(users, enc, s.config.MatchThreshold); dup {
		s.metrics.RecordFaceCheck("register", biometric.StatusAlreadyRegistered)
		return biometric.StatusAlreadyRegistered, nil
	}

	now := time.Now()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return "", err
	}

	if err := repo.Users.CreateUser(ctx, entity.User{
		ID:           id,
		FaceEncoding: enc,
		CreatedAt:    now,
	}); err != nil {
		return "", err
	}

	location, err := s.s3Client.UploadBytes(fmt.Sprintf("%s%s.%s", snapshotPrefix, id, format), img, contentType)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to upload face snapshot")
		return "", biometric.ErrSnapshotUploadFail
	}

	if err := repo.Users.UpdateSnapshotKey(ctx, id, location); err != nil {
		s.removeSnapshot(ctx, location)
		return "", err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		s.removeSnapshot(ctx, location)
		return "", err
	}
	committed = true

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    id,
	}).Info("Face registered")
	s.metrics.RecordFaceCheck("register", biometric.StatusRegistered)

	return biometric.StatusRegistered, nil
}

func (s *biometricService) removeSnapshot(ctx context.Context, location string) {
	if err := s.s3Client.DeleteFile(location); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"location":   location,
			"error":      err.Error(),
		}).Warn("Failed to remove orphaned snapshot")
	}
}

// SnapshotURL returns a short-lived link to the user's registration
// snapshot, or "" when none was stored.
func (s *biometricService) SnapshotURL(ctx context.Context, userID string) (string, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return "", err
	}

	user, err := repo.Users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.SnapshotKey == "" {
		return "", nil
	}

	return s.s3Client.PresignUrl(user.SnapshotKey)
}

// UserExists reports biometric.ErrUserNotFound when the session points at
// a user that is gone.
func (s *biometricService) UserExists(ctx context.Context, userID string) error {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return err
	}
	_, err = repo.Users.GetByID(ctx, userID)
	return err
}
