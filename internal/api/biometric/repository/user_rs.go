package biometricRepository

import (
	"VoxMail/internal/api/biometric"
	"VoxMail/internal/entity"
	contextPkg "VoxMail/pkg/context"
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type UserDB struct {
	ID           sql.NullString  `db:"id"`
	FaceEncoding pq.Float64Array `db:"face_encoding"`
	SnapshotKey  sql.NullString  `db:"snapshot_key"`
	CreatedAt    sql.NullTime    `db:"created_at"`
}

func (r *userRepository) CreateUser(c context.Context, user entity.User) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":            user.ID,
		"face_encoding": pq.Float64Array(user.FaceEncoding),
		"snapshot_key":  sql.NullString{String: user.SnapshotKey, Valid: user.SnapshotKey != ""},
		"created_at":    user.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateUser, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateUser")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating user")
		return err
	}

	return nil
}

func (r *userRepository) GetByID(c context.Context, id string) (entity.User, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryGetUserByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByID named query preparation err")
		return entity.User{}, err
	}
	query = r.q.Rebind(query)

	var userDB UserDB
	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&userDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.User{}, biometric.ErrUserNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByID execution err")
		return entity.User{}, err
	}

	return makeUser(userDB), nil
}

// GetFaceEncodings returns every user that has a stored encoding, oldest
// first.
func (r *userRepository) GetFaceEncodings(c context.Context) ([]entity.User, error) {
	requestID := contextPkg.GetRequestID(c)

	var usersDB []UserDB
	if err := sqlx.SelectContext(c, r.q, &usersDB, queryGetFaceEncodings); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetFaceEncodings execution err")
		return nil, err
	}

	users := make([]entity.User, 0, len(usersDB))
	for _, u := range usersDB {
		users = append(users, makeUser(u))
	}
	return users, nil
}

func (r *userRepository) UpdateSnapshotKey(c context.Context, id string, key string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryUpdateSnapshotKey, map[string]interface{}{
		"id":           id,
		"snapshot_key": key,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateSnapshotKey named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateSnapshotKey execution err")
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return biometric.ErrUserNotFound
	}
	return nil
}

func makeUser(userDB UserDB) entity.User {
	return entity.User{
		ID:           userDB.ID.String,
		FaceEncoding: []float64(userDB.FaceEncoding),
		SnapshotKey:  userDB.SnapshotKey.String,
		CreatedAt:    userDB.CreatedAt.Time,
	}
}
