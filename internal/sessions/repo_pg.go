package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. The wizard state is stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new session.
func (r *PGRepo) Create(ctx context.Context, session Session) error {
	const query = `
INSERT INTO wizard_sessions (id, phase, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	payload, err := json.Marshal(session.State)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		session.ID,
		session.State.Phase.String(),
		payload,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

// Get returns a session by id.
func (r *PGRepo) Get(ctx context.Context, id string) (Session, error) {
	const query = `
SELECT id, state, created_at, updated_at
FROM wizard_sessions
WHERE id = $1
LIMIT 1`
	var s Session
	var payload []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&s.ID, &payload, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if err := json.Unmarshal(payload, &s.State); err != nil {
		return Session{}, fmt.Errorf("decode session state: %w", err)
	}
	return s, nil
}

// Save replaces the state of an existing session.
func (r *PGRepo) Save(ctx context.Context, session Session) error {
	const query = `
UPDATE wizard_sessions
SET phase = $2, state = $3, updated_at = $4
WHERE id = $1`
	payload, err := json.Marshal(session.State)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query, session.ID, session.State.Phase.String(), payload, session.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a session.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteIdle removes sessions last updated before cutoff.
func (r *PGRepo) DeleteIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `DELETE FROM wizard_sessions WHERE updated_at < $1 RETURNING id`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
