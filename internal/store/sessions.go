package store

import (
	"database/sql"
	"fmt"
	"time"
)

const sessionColumns = `id, mode, start_time, end_time, duration, task_id, task_label`

// AppendSession adds s to the end of the session log and evicts the oldest
// rows beyond MaxSessions.
func (s *Store) AppendSession(sess Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin append session: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, mode, start_time, end_time, duration, task_id, task_label)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Mode,
		sess.StartTime.UTC().Format(time.RFC3339),
		sess.EndTime.UTC().Format(time.RFC3339),
		sess.DurationSec, sess.TaskID, sess.TaskLabel,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	// Keep the newest MaxSessions rows; the subquery is NULL while the log is short.
	_, err = tx.Exec(
		`DELETE FROM sessions WHERE seq <= (
			SELECT seq FROM sessions ORDER BY seq DESC LIMIT 1 OFFSET ?
		)`, MaxSessions,
	)
	if err != nil {
		return fmt.Errorf("evict sessions: %w", err)
	}

	return tx.Commit()
}

func (s *Store) getSession(id string) (*Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

func (s *Store) CountSessions() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// SessionLog returns the whole log in append order, oldest first.
func (s *Store) SessionLog() ([]Session, error) {
	rows, err := s.db.Query(`SELECT ` + sessionColumns + ` FROM sessions ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("session log: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListSessions returns matching sessions, newest first.
func (s *Store) ListSessions(f SessionFilter) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`
	var args []any

	if f.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, f.Mode)
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY seq DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

// GetDailySummary groups sessions by local calendar day and mode.
func (s *Store) GetDailySummary(from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT date(start_time, 'localtime') AS day, mode,
		       COALESCE(SUM(duration), 0), COUNT(*)
		FROM sessions
		WHERE start_time >= ? AND start_time < ?
		GROUP BY day, mode
		ORDER BY day, mode`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.Mode, &ds.TotalSeconds, &ds.SessionCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (*Session, error) {
	sess := &Session{}
	var startTime, endTime string
	if err := r.Scan(&sess.ID, &sess.Mode, &startTime, &endTime, &sess.DurationSec, &sess.TaskID, &sess.TaskLabel); err != nil {
		return nil, err
	}
	sess.StartTime, _ = time.Parse(time.RFC3339, startTime)
	sess.EndTime, _ = time.Parse(time.RFC3339, endTime)
	return sess, nil
}

func collectSessions(rows *sql.Rows) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}
