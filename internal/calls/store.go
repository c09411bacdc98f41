package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("call not found")

// Store is the SQLite-backed record of calls and their transcripts. All
// reads go through it; the playback engine only ever sees the slices it
// returns.
type Store struct {
	dbPath string
	db     *sql.DB
	mu     sync.Mutex
}

func Open(dbPath string, reset bool) (*Store, error) {
	if reset {
		_ = os.Remove(dbPath)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{dbPath: dbPath, db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS calls (
			id TEXT PRIMARY KEY,
			caller TEXT,
			number TEXT,
			status TEXT,
			started_ts INTEGER,
			duration_secs INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS call_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			call_id TEXT REFERENCES calls(id) ON DELETE CASCADE,
			seq INTEGER,
			role TEXT,
			content TEXT,
			ts INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_call_messages_call ON call_messages(call_id, seq);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// ListCalls returns calls ordered newest first, annotated with message count
// and a first-customer-line preview. A non-empty query narrows the result
// to calls whose caller, number, or transcript content matches any term.
func (s *Store) ListCalls(query string, limit int) ([]Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 200
	}

	var b strings.Builder
	b.WriteString(`
		SELECT c.id, c.caller, c.number, c.status, COALESCE(c.started_ts, 0), COALESCE(c.duration_secs, 0),
			(SELECT COUNT(*) FROM call_messages m WHERE m.call_id = c.id),
			COALESCE((SELECT content FROM call_messages m2 WHERE m2.call_id = c.id AND m2.role = 'customer' ORDER BY m2.seq LIMIT 1), '')
		FROM calls c
	`)
	args := make([]any, 0, 8)

	terms := tokenizeSearchTerms(query)
	if len(terms) > 0 {
		b.WriteString(" WHERE ")
		for idx, term := range terms {
			if idx > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(`(LOWER(c.caller) LIKE ? OR c.number LIKE ? OR EXISTS (
				SELECT 1 FROM call_messages m3 WHERE m3.call_id = c.id AND LOWER(m3.content) LIKE ?
			))`)
			like := "%" + term + "%"
			args = append(args, like, like, like)
		}
	}
	b.WriteString(` ORDER BY c.started_ts DESC, c.id LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.Query(b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	out := make([]Call, 0, 64)
	for rows.Next() {
		var c Call
		if err := rows.Scan(&c.ID, &c.Caller, &c.Number, &c.Status, &c.StartedTS, &c.DurationSecs, &c.MessageCount, &c.Preview); err != nil {
			return nil, fmt.Errorf("scan call row: %w", err)
		}
		c.Preview = trimPreview(c.Preview)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate call rows: %w", err)
	}
	return out, nil
}

func (s *Store) GetCall(id string) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c Call
	err := s.db.QueryRow(`
		SELECT c.id, c.caller, c.number, c.status, COALESCE(c.started_ts, 0), COALESCE(c.duration_secs, 0),
			(SELECT COUNT(*) FROM call_messages m WHERE m.call_id = c.id)
		FROM calls c WHERE c.id = ?
	`, id).Scan(&c.ID, &c.Caller, &c.Number, &c.Status, &c.StartedTS, &c.DurationSecs, &c.MessageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	if err != nil {
		return Call{}, fmt.Errorf("get call %s: %w", id, err)
	}
	return c, nil
}

// GetMessages returns a call's transcript in turn order.
func (s *Store) GetMessages(callID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, call_id, seq, role, content, COALESCE(ts, 0)
		FROM call_messages
		WHERE call_id = ?
		ORDER BY seq, id
	`, callID)
	if err != nil {
		return nil, fmt.Errorf("query call messages: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0, 32)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.CallID, &m.Seq, &m.Role, &m.Content, &m.TS); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// InsertCall stores a call and its transcript in one transaction, replacing
// any previous copy of the same id.
func (s *Store) InsertCall(ctx context.Context, c Call, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM call_messages WHERE call_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear stale messages for %s: %w", c.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO calls(id, caller, number, status, started_ts, duration_secs)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			caller=excluded.caller,
			number=excluded.number,
			status=excluded.status,
			started_ts=excluded.started_ts,
			duration_secs=excluded.duration_secs
	`, c.ID, c.Caller, c.Number, c.Status, c.StartedTS, c.DurationSecs); err != nil {
		return fmt.Errorf("upsert call %s: %w", c.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO call_messages(call_id, seq, role, content, ts)
		VALUES(?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, c.ID, i, m.Role, m.Content, m.TS); err != nil {
			return fmt.Errorf("insert message %d for %s: %w", i, c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert %s: %w", c.ID, err)
	}
	return nil
}

func trimPreview(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if len(s) <= 120 {
		return s
	}
	return s[:117] + "..."
}

func tokenizeSearchTerms(raw string) []string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "`\"'.,:;!?()[]{}<>|")
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
