package mailRepository

import (
	"VoxMail/internal/api/mail"
	"VoxMail/internal/entity"
	contextPkg "VoxMail/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type GmailAccountDB struct {
	UserID       sql.NullString `db:"user_id"`
	Email        sql.NullString `db:"email"`
	AccessToken  sql.NullString `db:"access_token"`
	RefreshToken sql.NullString `db:"refresh_token"`
	TokenType    sql.NullString `db:"token_type"`
	Expiry       sql.NullTime   `db:"expiry"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
}

// exec runs a named statement and logs failures under operation.
func (r *accountRepository) exec(c context.Context, operation, namedQuery string, argsKV map[string]interface{}) (sql.Result, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Errorf("%s named query preparation err", operation)
		return nil, err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Errorf("%s execution err", operation)
		return nil, err
	}
	return res, nil
}

func (r *accountRepository) UpsertAccount(c context.Context, account entity.GmailAccount) error {
	now := time.Now()
	_, err := r.exec(c, "UpsertAccount", queryUpsertAccount, map[string]interface{}{
		"user_id":       account.UserID,
		"email":         account.Email,
		"access_token":  account.AccessToken,
		"refresh_token": account.RefreshToken,
		"token_type":    account.TokenType,
		"expiry":        nullTime(account.Expiry),
		"created_at":    now,
		"updated_at":    now,
	})
	return err
}

func (r *accountRepository) GetByUserID(c context.Context, userID string) (entity.GmailAccount, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryGetAccountByUserID, map[string]interface{}{"user_id": userID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByUserID named query preparation err")
		return entity.GmailAccount{}, err
	}
	query = r.q.Rebind(query)

	var accountDB GmailAccountDB
	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&accountDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.GmailAccount{}, mail.ErrGmailNotLinked
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByUserID execution err")
		return entity.GmailAccount{}, err
	}

	return makeGmailAccount(accountDB), nil
}

func (r *accountRepository) UpdateToken(c context.Context, account entity.GmailAccount) error {
	res, err := r.exec(c, "UpdateToken", queryUpdateToken, map[string]interface{}{
		"user_id":       account.UserID,
		"access_token":  account.AccessToken,
		"refresh_token": account.RefreshToken,
		"token_type":    account.TokenType,
		"expiry":        nullTime(account.Expiry),
		"updated_at":    time.Now(),
	})
	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return mail.ErrGmailNotLinked
	}
	return nil
}

func (r *accountRepository) DeleteByUserID(c context.Context, userID string) error {
	_, err := r.exec(c, "DeleteByUserID", queryDeleteAccount, map[string]interface{}{"user_id": userID})
	return err
}

func makeGmailAccount(accountDB GmailAccountDB) entity.GmailAccount {
	return entity.GmailAccount{
		UserID:       accountDB.UserID.String,
		Email:        accountDB.Email.String,
		AccessToken:  accountDB.AccessToken.String,
		RefreshToken: accountDB.RefreshToken.String,
		TokenType:    accountDB.TokenType.String,
		Expiry:       accountDB.Expiry.Time,
		CreatedAt:    accountDB.CreatedAt.Time,
		UpdatedAt:    accountDB.UpdatedAt.Time,
	}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
