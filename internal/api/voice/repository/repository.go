package voiceRepository

import (
	"VoxMail/internal/entity"
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		VoiceCommands: &voiceRepository{q: sqlExecutor, log: r.log},
		Commit:        commitFunc,
		Rollback:      rollbackFunc,
	}, nil
}

type Client struct {
	VoiceCommands interface {
		CreateVoiceCommand(ctx context.Context, cmd entity.VoiceCommand) error
		GetVoiceCommandsByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.VoiceCommand, int, error)
		GetVoiceCommandsBySessionID(ctx context.Context, sessionID string) ([]entity.VoiceCommand, error)
	}

	Commit   func() error
	Rollback func() error
}

type voiceRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
