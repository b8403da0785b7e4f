package voiceRepository

import (
	"VoxMail/internal/entity"
	contextPkg "VoxMail/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type VoiceCommandDB struct {
	ID         sql.NullString `db:"id"`
	UserID     sql.NullString `db:"user_id"`
	SessionID  sql.NullString `db:"session_id"`
	Page       sql.NullString `db:"page"`
	Transcript sql.NullString `db:"transcript"`
	Command    sql.NullString `db:"command"`
	Rule       sql.NullString `db:"rule"`
	Target     sql.NullString `db:"target"`
	ItemIndex  sql.NullInt64  `db:"item_index"`
	Response   sql.NullString `db:"response"`
	Outcome    sql.NullString `db:"outcome"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r *voiceRepository) CreateVoiceCommand(ctx context.Context, cmd entity.VoiceCommand) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":         cmd.ID,
		"user_id":    nullString(cmd.UserID),
		"session_id": cmd.SessionID,
		"page":       cmd.Page,
		"transcript": cmd.Transcript,
		"command":    cmd.Command,
		"rule":       nullString(cmd.Rule),
		"target":     nullString(cmd.Target),
		"item_index": cmd.ItemIndex,
		"response":   nullString(cmd.Response),
		"outcome":    cmd.Outcome,
		"created_at": cmd.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateVoiceCommand, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateVoiceCommand")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating voice command")
		return err
	}

	return nil
}

func (r *voiceRepository) GetVoiceCommandsByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.VoiceCommand, int, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var commandsList []VoiceCommandDB
	var total int

	countQuery, countArgs, err := sqlx.Named(queryCountVoiceCommandsByUserID, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountVoiceCommandsByUserID named query preparation err")
		return nil, 0, err
	}
	countQuery = r.q.Rebind(countQuery)

	if err := r.q.QueryRowxContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountVoiceCommandsByUserID execution err")
		return nil, 0, err
	}

	query, args, err := sqlx.Named(queryGetVoiceCommandsByUserID, map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVoiceCommandsByUserID named query preparation err")
		return nil, 0, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &commandsList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVoiceCommandsByUserID execution err")
		return nil, 0, err
	}

	commands := make([]entity.VoiceCommand, 0, len(commandsList))
	for _, cmdDB := range commandsList {
		commands = append(commands, makeVoiceCommand(cmdDB))
	}

	return commands, total, nil
}

func (r *voiceRepository) GetVoiceCommandsBySessionID(ctx context.Context, sessionID string) ([]entity.VoiceCommand, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var commandsList []VoiceCommandDB

	query, args, err := sqlx.Named(queryGetVoiceCommandsBySessionID, map[string]interface{}{
		"session_id": sessionID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVoiceCommandsBySessionID named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	if err := r.q.SelectContext(ctx, &commandsList, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVoiceCommandsBySessionID execution err")
		return nil, err
	}

	commands := make([]entity.VoiceCommand, 0, len(commandsList))
	for _, cmdDB := range commandsList {
		commands = append(commands, makeVoiceCommand(cmdDB))
	}
	return commands, nil
}

func makeVoiceCommand(cmdDB VoiceCommandDB) entity.VoiceCommand {
	return entity.VoiceCommand{
		ID:         cmdDB.ID.String,
		UserID:     cmdDB.UserID.String,
		SessionID:  cmdDB.SessionID.String,
		Page:       cmdDB.Page.String,
		Transcript: cmdDB.Transcript.String,
		Command:    cmdDB.Command.String,
		Rule:       cmdDB.Rule.String,
		Target:     cmdDB.Target.String,
		ItemIndex:  int(cmdDB.ItemIndex.Int64),
		Response:   cmdDB.Response.String,
		Outcome:    cmdDB.Outcome.String,
		CreatedAt:  cmdDB.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
