package voiceService

import (
	"VoxMail/internal/api/voice"
	voiceRepository "VoxMail/internal/api/voice/repository"
	"VoxMail/internal/entity"
	"VoxMail/pkg/events"
	"VoxMail/pkg/metrics"
	"VoxMail/pkg/nlp"
	"VoxMail/pkg/utils"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type IVoiceService interface {
	Interpret(ctx context.Context, req voice.InterpretRequest) (*voice.InterpretResponse, error)
	GetCommandTable(ctx context.Context) nlp.CommandTable
	GetVoiceHistory(ctx context.Context, userID string, page, limit int) ([]voice.VoiceCommandHistory, int, error)

	// RecordCommand persists, counts and publishes a dispatched command
	// without blocking the caller.
	RecordCommand(ctx context.Context, cmd entity.VoiceCommand)

	NewController(term Terminal, sess Session, opts ...ControllerOption) *Controller
}

type voiceService struct {
	log         *logrus.Logger
	voiceRepo   voiceRepository.Repository
	utils       utils.IUtils
	interpreter nlp.IInterpreter
	publisher   events.IPublisher
	metrics     *metrics.Metrics
	config      *VoiceConfig
}

type VoiceConfig struct {
	RestartDelay     time.Duration `json:"restart_delay"`
	SpeechRate       float64       `json:"speech_rate"`
	SpeechLang       string        `json:"speech_lang"`
	CommandTablePath string        `json:"command_table_path"`
	RecordTimeout    time.Duration `json:"record_timeout"`
	HistoryPageLimit int           `json:"history_page_limit"`
}

func NewVoiceService(
	log *logrus.Logger,
	voiceRepo voiceRepository.Repository,
	utils utils.IUtils,
	interpreter nlp.IInterpreter,
	publisher events.IPublisher,
	m *metrics.Metrics,
	config *VoiceConfig,
) IVoiceService {
	if config == nil {
		config = &VoiceConfig{}
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &voiceService{
		log:         log,
		voiceRepo:   voiceRepo,
		utils:       utils,
		interpreter: interpreter,
		publisher:   publisher,
		metrics:     m,
		config:      config,
	}
}
