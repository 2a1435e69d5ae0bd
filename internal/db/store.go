package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store provides persistence for debates, contributions, and events.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// DebateRecord is a committed debate row.
type DebateRecord struct {
	DebateID   string
	CreatedAt  string
	Problem    string
	Rounds     int
	Status     string
	Solution   string
	Error      string
	DurationMs int64
}

// ContributionRecord is a committed contribution row.
type ContributionRecord struct {
	DebateID  string
	AgentID   string
	AgentRole string
	Round     int
	Phase     string
	Content   string
	Failed    bool
}

// EventRecord is one journaled debate event.
type EventRecord struct {
	DebateID string
	Seq      int
	TS       string
	Kind     string
	DataJSON string
}

// CreateDebate inserts the debate row in running state.
func (s *Store) CreateDebate(ctx context.Context, debateID, problem string, rounds int) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO debates(debate_id, created_at, problem, rounds, status, solution, error, duration_ms)
		VALUES(?, ?, ?, ?, ?, NULL, NULL, NULL)`,
		debateID, createdAt, problem, rounds, "running"); err != nil {
		return fmt.Errorf("insert debate: %w", err)
	}
	return nil
}

// FinishDebate records the terminal outcome of a debate.
func (s *Store) FinishDebate(ctx context.Context, debateID, status, solution, errMsg string, durationMs int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE debates SET status=?, solution=?, error=?, duration_ms=? WHERE debate_id=?`,
		status, nullableString(solution), nullableString(errMsg), durationMs, debateID); err != nil {
		return fmt.Errorf("update debate: %w", err)
	}
	return nil
}

// InsertContribution commits one agent contribution.
func (s *Store) InsertContribution(ctx context.Context, c ContributionRecord) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO contributions(debate_id, agent_id, agent_role, round, phase, content, failed, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		c.DebateID, c.AgentID, c.AgentRole, c.Round, c.Phase, c.Content, c.Failed, createdAt); err != nil {
		return fmt.Errorf("insert contribution: %w", err)
	}
	return nil
}

// AppendEvent journals one event under the machine's sequence number. The
// primary key rejects duplicate sequence numbers per debate.
func (s *Store) AppendEvent(ctx context.Context, debateID string, seq int, kind, dataJSON string) error {
	ts := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO events(debate_id, seq, ts, kind, data_json) VALUES(?, ?, ?, ?, ?)`,
		debateID, seq, ts, kind, nullableString(dataJSON)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListDebates returns all debates, newest first.
func (s *Store) ListDebates(ctx context.Context) ([]DebateRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT debate_id, created_at, problem, rounds, status,
		COALESCE(solution, ''), COALESCE(error, ''), COALESCE(duration_ms, 0)
		FROM debates ORDER BY created_at DESC, debate_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query debates: %w", err)
	}
	defer rows.Close()

	var out []DebateRecord
	for rows.Next() {
		var r DebateRecord
		if err := rows.Scan(&r.DebateID, &r.CreatedAt, &r.Problem, &r.Rounds, &r.Status, &r.Solution, &r.Error, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("scan debate: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetDebate returns one debate, or nil if it does not exist.
func (s *Store) GetDebate(ctx context.Context, debateID string) (*DebateRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT debate_id, created_at, problem, rounds, status,
		COALESCE(solution, ''), COALESCE(error, ''), COALESCE(duration_ms, 0)
		FROM debates WHERE debate_id=?`, debateID)

	var r DebateRecord
	if err := row.Scan(&r.DebateID, &r.CreatedAt, &r.Problem, &r.Rounds, &r.Status, &r.Solution, &r.Error, &r.DurationMs); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("read debate: %w", err)
	}
	return &r, nil
}

// ListContributions returns a debate's contributions in commit order.
func (s *Store) ListContributions(ctx context.Context, debateID string) ([]ContributionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT debate_id, agent_id, agent_role, round, phase, content, failed
		FROM contributions WHERE debate_id=? ORDER BY id`, debateID)
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", err)
	}
	defer rows.Close()

	var out []ContributionRecord
	for rows.Next() {
		var r ContributionRecord
		if err := rows.Scan(&r.DebateID, &r.AgentID, &r.AgentRole, &r.Round, &r.Phase, &r.Content, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListEvents returns a debate's journal in sequence order.
func (s *Store) ListEvents(ctx context.Context, debateID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT debate_id, seq, ts, kind, COALESCE(data_json, '')
		FROM events WHERE debate_id=? ORDER BY seq`, debateID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var r EventRecord
		if err := rows.Scan(&r.DebateID, &r.Seq, &r.TS, &r.Kind, &r.DataJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
