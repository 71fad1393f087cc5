package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

// Storage is the append-only action journal
type Storage struct {
	db *sql.DB
}

// New creates a new Storage instance and initializes the database
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			contract TEXT NOT NULL,
			action TEXT NOT NULL,
			kind TEXT NOT NULL,
			op_tag INTEGER NOT NULL,
			body_hash TEXT NOT NULL,
			value_nano INTEGER NOT NULL,
			baseline_lt INTEGER NOT NULL,
			status TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			message TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_contract ON actions(contract, created_at)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// RecordAction appends rec, filling ID and CreatedAt when empty
func (s *Storage) RecordAction(rec *ActionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	value, err := toInt64(rec.ValueNano)
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	baseline, err := toInt64(rec.BaselineLt)
	if err != nil {
		return fmt.Errorf("baseline lt: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO actions (id, contract, action, kind, op_tag, body_hash, value_nano, baseline_lt, status, attempts, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Contract, rec.Action, rec.Kind, int64(rec.OpTag), rec.BodyHash,
		value, baseline, rec.Status, rec.Attempts, rec.Message, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// GetAction returns a single journal entry
func (s *Storage) GetAction(id string) (*ActionRecord, error) {
	row := s.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id)
	rec, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListActions returns the newest entries first; an empty contract lists all
func (s *Storage) ListActions(contract string, limit int) ([]ActionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var (
		rows *sql.Rows
		err  error
	)
	if contract == "" {
		rows, err = s.db.Query(`SELECT `+actionColumns+` FROM actions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(`SELECT `+actionColumns+` FROM actions WHERE contract = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, contract, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		rec, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// CountByStatus summarizes the journal of a contract; an empty contract counts all
func (s *Storage) CountByStatus(contract string) ([]StatusCount, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if contract == "" {
		rows, err = s.db.Query(`SELECT status, COUNT(*) FROM actions GROUP BY status ORDER BY status`)
	} else {
		rows, err = s.db.Query(`SELECT status, COUNT(*) FROM actions WHERE contract = ? GROUP BY status ORDER BY status`, contract)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const actionColumns = `id, contract, action, kind, op_tag, body_hash, value_nano, baseline_lt, status, attempts, message, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAction(row scanner) (*ActionRecord, error) {
	var (
		rec                  ActionRecord
		tag, value, baseline int64
		createdAt            int64
	)
	err := row.Scan(&rec.ID, &rec.Contract, &rec.Action, &rec.Kind, &tag, &rec.BodyHash,
		&value, &baseline, &rec.Status, &rec.Attempts, &rec.Message, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.OpTag = uint32(tag)
	rec.ValueNano = uint64(value)
	rec.BaselineLt = uint64(baseline)
	rec.CreatedAt = time.UnixMilli(createdAt)
	return &rec, nil
}

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%d does not fit in a signed column", v)
	}
	return int64(v), nil
}
