package voiceService

import (
	"VoxMail/internal/api/voice"
	"VoxMail/internal/entity"
	contextPkg "VoxMail/pkg/context"
	"VoxMail/pkg/nlp"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultRecordTimeout = 5 * time.Second

func (s *voiceService) Interpret(ctx context.Context, req voice.InterpretRequest) (*voice.InterpretResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	page := nlp.PageKind(req.Page)
	if !page.Valid() {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"page":       req.Page,
		}).Warn("Interpret called with unknown page")
		return nil, voice.ErrInvalidPage
	}

	pc := nlp.PageContext{
		Page:  page,
		Email: req.Email,
		Links: req.Links,
	}
	cmd := s.interpreter.Interpret(req.Transcript, pc, nlp.ReadingStatus{
		Active: req.Reading,
		Paused: req.Paused,
	})

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"page":       page,
		"kind":       cmd.Kind,
		"rule":       cmd.Rule,
	}).Debug("Transcript interpreted")

	return makeInterpretResponse(cmd), nil
}

func (s *voiceService) GetCommandTable(ctx context.Context) nlp.CommandTable {
	return s.interpreter.Table()
}

func (s *voiceService) GetVoiceHistory(ctx context.Context, userID string, page, limit int) ([]voice.VoiceCommandHistory, int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if page < 1 {
		page = 1
	}
	maxLimit := s.config.HistoryPageLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if limit < 1 || limit > maxLimit {
		limit = 20
	}

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, 0, voice.ErrHistoryUnavailable
	}

	commands, total, err := repo.VoiceCommands.GetVoiceCommandsByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("Failed to load voice history")
		return nil, 0, voice.ErrHistoryUnavailable
	}

	history := make([]voice.VoiceCommandHistory, 0, len(commands))
	for _, cmd := range commands {
		history = append(history, voice.VoiceCommandHistory{
			ID:         cmd.ID,
			SessionID:  cmd.SessionID,
			Page:       cmd.Page,
			Transcript: cmd.Transcript,
			Command:    cmd.Command,
			Rule:       cmd.Rule,
			Target:     cmd.Target,
			ItemIndex:  cmd.ItemIndex,
			Response:   cmd.Response,
			Outcome:    cmd.Outcome,
			CreatedAt:  cmd.CreatedAt,
		})
	}

	return history, total, nil
}

func (s *voiceService) RecordCommand(ctx context.Context, cmd entity.VoiceCommand) {
	requestID := contextPkg.GetRequestID(ctx)

	if cmd.CreatedAt.IsZero() {
		cmd.CreatedAt = time.Now()
	}
	if cmd.ID == "" {
		id, err := s.utils.NewULIDFromTimestamp(cmd.CreatedAt)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to generate voice command ID")
			return
		}
		cmd.ID = id
	}

	reason := ""
	if cmd.Outcome != entity.OutcomeOK && cmd.Outcome != entity.OutcomeIgnored {
		reason = cmd.Outcome
	}
	s.metrics.RecordCommand(cmd.Page, cmd.Command, reason)

	timeout := s.config.RecordTimeout
	if timeout <= 0 {
		timeout = defaultRecordTimeout
	}

	go func() {
		c, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), timeout)
		defer cancel()

		s.persistCommand(c, cmd)

		if s.publisher == nil {
			return
		}
		if err := s.publisher.Publish(c, cmd.SessionID, cmd); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"command_id": cmd.ID,
				"error":      err.Error(),
			}).Warn("Failed to publish voice command event")
		}
	}()
}

func (s *voiceService) persistCommand(ctx context.Context, cmd entity.VoiceCommand) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.voiceRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return
	}
	defer repo.Rollback()

	if err := repo.VoiceCommands.CreateVoiceCommand(ctx, cmd); err != nil {
		return
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit voice command")
	}
}

func (s *voiceService) NewController(term Terminal, sess Session, opts ...ControllerOption) *Controller {
	base := []ControllerOption{
		WithRestartDelay(s.config.RestartDelay),
		WithSpeech(s.config.SpeechRate, s.config.SpeechLang),
		WithRecorder(s),
		WithMetrics(s.metrics),
	}
	return NewController(term, s.interpreter, s.log, sess, append(base, opts...)...)
}

func makeInterpretResponse(cmd nlp.Command) *voice.InterpretResponse {
	res := &voice.InterpretResponse{
		Kind:    string(cmd.Kind),
		Target:  cmd.Target,
		Index:   cmd.Index,
		Action:  cmd.Action,
		Message: cmd.Message,
		Rule:    cmd.Rule,
	}
	if cmd.Err != nil {
		res.Error = cmd.Err.Error()
	}
	if cmd.Then != nil {
		res.Then = makeInterpretResponse(*cmd.Then)
	}
	return res
}
