package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/region"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	record_id     TEXT NOT NULL UNIQUE,
	client_id     TEXT NOT NULL,
	request_key   TEXT,
	x             REAL NOT NULL,
	y             REAL NOT NULL,
	r             REAL NOT NULL,
	hit           INTEGER NOT NULL,
	shape         TEXT,
	evaluated_at  TEXT NOT NULL,
	duration_ns   INTEGER NOT NULL,
	stored_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_client ON evaluations (client_id, seq);

CREATE UNIQUE INDEX IF NOT EXISTS idx_evaluations_request
	ON evaluations (client_id, request_key) WHERE request_key IS NOT NULL;
`

const selectColumns = `seq, client_id, request_key, record_id, x, y, r, hit, shape, evaluated_at, duration_ns, stored_at`

// #endregion schema

// #region store-struct
// Store keeps a bounded, newest-first evaluation log per client in SQLite.
// It is safe for concurrent use.
type Store struct {
	db           *sql.DB
	maxPerClient int
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations. maxPerClient <= 0
// selects DefaultMaxPerClient.
func NewStore(dbPath string, maxPerClient int) (*Store, error) {
	if maxPerClient <= 0 {
		maxPerClient = DefaultMaxPerClient
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, maxPerClient: maxPerClient}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region append
// Append stores rec for clientID and trims the client's log to the cap.
// When requestKey is non-empty and was already used by this client for the
// same point and radius, the earlier entry is returned with created=false
// and nothing is written. Reuse with a different input is a *ConflictError.
func (s *Store) Append(clientID, requestKey string, rec eval.Record) (entry Entry, created bool, err error) {
	if clientID == "" {
		return Entry{}, false, errors.New("append: empty client id")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Entry{}, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if requestKey != "" {
		existing, err := scanEntry(tx.QueryRow(
			`SELECT `+selectColumns+` FROM evaluations WHERE client_id = ? AND request_key = ?`,
			clientID, requestKey,
		))
		if err == nil {
			if !sameInput(existing.Record, rec) {
				return Entry{}, false, &ConflictError{RequestKey: requestKey, Stored: existing.Record}
			}
			return existing, false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, fmt.Errorf("lookup request key: %w", err)
		}
	}

	storedAt := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO evaluations (record_id, client_id, request_key, x, y, r, hit, shape, evaluated_at, duration_ns, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, clientID, nullIfEmpty(requestKey),
		rec.Point.X, rec.Point.Y, rec.Radius, boolToInt(rec.Hit), nullIfEmpty(string(rec.Shape)),
		rec.EvaluatedAt.UTC().Format(time.RFC3339Nano), int64(rec.Duration),
		storedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, false, fmt.Errorf("insert evaluation: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return Entry{}, false, fmt.Errorf("last insert id: %w", err)
	}

	_, err = tx.Exec(
		`DELETE FROM evaluations
		 WHERE client_id = ? AND seq NOT IN (
			SELECT seq FROM evaluations WHERE client_id = ? ORDER BY seq DESC LIMIT ?
		 )`,
		clientID, clientID, s.maxPerClient,
	)
	if err != nil {
		return Entry{}, false, fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, false, fmt.Errorf("commit: %w", err)
	}

	return Entry{
		Seq:        seq,
		ClientID:   clientID,
		RequestKey: requestKey,
		Record:     rec,
		StoredAt:   storedAt,
	}, true, nil
}

// #endregion append

// #region list
// List returns up to limit entries for clientID, newest first. limit <= 0
// returns everything retained.
func (s *Store) List(clientID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxPerClient
	}
	rows, err := s.db.Query(
		`SELECT `+selectColumns+` FROM evaluations WHERE client_id = ? ORDER BY seq DESC LIMIT ?`,
		clientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry holding record id.
func (s *Store) Get(recordID string) (Entry, error) {
	e, err := scanEntry(s.db.QueryRow(
		`SELECT `+selectColumns+` FROM evaluations WHERE record_id = ?`, recordID,
	))
	if err != nil {
		return Entry{}, fmt.Errorf("get record %s: %w", recordID, err)
	}
	return e, nil
}

// #endregion list

// #region clear
// Clear deletes every entry of clientID and returns how many were removed.
func (s *Store) Clear(clientID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM evaluations WHERE client_id = ?`, clientID)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// #endregion clear

// #region clients
// Clients returns per-client statistics, most recently active first.
// limit <= 0 returns every client.
func (s *Store) Clients(limit int) ([]ClientStats, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(
		`SELECT client_id, COUNT(*), SUM(hit), MAX(stored_at)
		 FROM evaluations GROUP BY client_id ORDER BY MAX(seq) DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var stats []ClientStats
	for rows.Next() {
		var cs ClientStats
		var lastStr string
		if err := rows.Scan(&cs.ClientID, &cs.Entries, &cs.Hits, &lastStr); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		cs.LastAt, _ = time.Parse(time.RFC3339Nano, lastStr)
		stats = append(stats, cs)
	}
	return stats, rows.Err()
}

// #endregion clients

// #region helpers
func sameInput(a, b eval.Record) bool {
	return a.Point == b.Point && a.Radius == b.Radius
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var requestKey, shape sql.NullString
	var hit int
	var evaluatedStr, storedStr string
	var durationNS int64

	err := row.Scan(
		&e.Seq, &e.ClientID, &requestKey, &e.Record.ID,
		&e.Record.Point.X, &e.Record.Point.Y, &e.Record.Radius,
		&hit, &shape, &evaluatedStr, &durationNS, &storedStr,
	)
	if err != nil {
		return Entry{}, err
	}
	if requestKey.Valid {
		e.RequestKey = requestKey.String
	}
	if shape.Valid {
		e.Record.Shape = region.ShapeKind(shape.String)
	}
	e.Record.Hit = hit != 0
	e.Record.Duration = time.Duration(durationNS)
	e.Record.EvaluatedAt, _ = time.Parse(time.RFC3339Nano, evaluatedStr)
	e.StoredAt, _ = time.Parse(time.RFC3339Nano, storedStr)
	return e, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
