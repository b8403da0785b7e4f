package biometricService

import (
	"VoxMail/internal/api/biometric"
	biometricRepository "VoxMail/internal/api/biometric/repository"
	"VoxMail/pkg/metrics"
	"VoxMail/pkg/s3"
	"VoxMail/pkg/utils"
	websocketPkg "VoxMail/pkg/websocket"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMatchThreshold = 0.45
	DefaultSessionTTL     = 12 * time.Hour
	snapshotPrefix        = "faces/"
)

type IBiometricService interface {
	Verify(ctx context.Context, req biometric.FaceImageRequest) (biometric.VerifyResult, error)
	Register(ctx context.Context, req biometric.FaceImageRequest) (string, error)
	UserExists(ctx context.Context, userID string) error
	SnapshotURL(ctx context.Context, userID string) (string, error)
}

type BiometricConfig struct {
	MatchThreshold float64
	SessionTTL     time.Duration
}

type biometricService struct {
	log         *logrus.Logger
	repo        biometricRepository.Repository
	faceEncoder websocketPkg.IFaceEncoder
	s3Client    s3.ItfS3
	utils       utils.IUtils
	metrics     *metrics.Metrics
	config      BiometricConfig
}

func New(
	log *logrus.Logger,
	repo biometricRepository.Repository,
	faceEncoder websocketPkg.IFaceEncoder,
	s3Client s3.ItfS3,
	utils utils.IUtils,
	m *metrics.Metrics,
	config *BiometricConfig,
) IBiometricService {
	cfg := BiometricConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = DefaultMatchThreshold
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}

	return &biometricService{
		log:         log,
		repo:        repo,
		faceEncoder: faceEncoder,
		s3Client:    s3Client,
		utils:       utils,
		metrics:     m,
		config:      cfg,
	}
}
