package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPurge removes expired session audit rows.
	TaskSessionPurge = "auth:purge_sessions"
)

// SessionPurgePayload bounds how many expired rows one run removes.
type SessionPurgePayload struct {
	Limit int `json:"limit"`
}

// NewSessionPurgeTask constructs an Asynq task.
func NewSessionPurgeTask(limit int) (*asynq.Task, error) {
	data, err := json.Marshal(SessionPurgePayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, data), nil
}

// NewSessionPurgeHandler builds the handler deleting expired session
// rows. Tokens expire in Redis on their own; this only trims the audit
// table.
func NewSessionPurgeHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SessionPurgePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		limit := payload.Limit
		if limit <= 0 {
			limit = 1000
		}
		tag, err := pool.Exec(ctx,
			`DELETE FROM auth_sessions
			 WHERE id IN (
				SELECT id FROM auth_sessions WHERE expires_at < now() LIMIT $1
			 )`, limit)
		if err != nil {
			return err
		}
		if logger != nil && tag.RowsAffected() > 0 {
			logger.Info("purged expired sessions", slog.Int64("rows", tag.RowsAffected()))
		}
		return nil
	}
}
