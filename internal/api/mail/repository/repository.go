package mailRepository

import (
	"VoxMail/internal/entity"
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

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
	var db sqlx.ExtContext
	var commitFunc, rollbackFunc func() error

	db = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		db = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Accounts: &accountRepository{q: db, log: r.log},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type Client struct {
	Accounts interface {
		UpsertAccount(ctx context.Context, account entity.GmailAccount) error
		GetByUserID(ctx context.Context, userID string) (entity.GmailAccount, error)
		UpdateToken(ctx context.Context, account entity.GmailAccount) error
		DeleteByUserID(ctx context.Context, userID string) error
	}

	Commit   func() error
	Rollback func() error
}

type accountRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}
