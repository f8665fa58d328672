// Package refstore maps payee bank details to stable account references.
// References are assigned on first sight and never change, so the same
// payee resolves to the same reference across runs.
package refstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jwhitehead/payagg/internal/bpy331"
)

// Identity is the 4-tuple that identifies a payee. Values are compared
// exactly as stored, after the format boundary has stripped quoting.
type Identity struct {
	BankAccount        string
	SortCode           string
	PayeeName          string
	BuildingSocietyNum string
}

func IdentityOf(r bpy331.Record) Identity {
	return Identity{
		BankAccount:        r.BankAccount,
		SortCode:           r.SortCode,
		PayeeName:          r.PayeeName,
		BuildingSocietyNum: r.BuildingSocietyNum,
	}
}

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS payees (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_ref TEXT NOT NULL,
	bank_account TEXT NOT NULL,
	sort_code TEXT NOT NULL,
	payee_name TEXT NOT NULL,
	building_society_num TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(bank_account, sort_code, payee_name, building_society_num)
);`

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open reference store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure reference store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize reference store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Resolve returns the account reference for an identity, creating an
// entry when none exists. Insert and lookup run in one transaction so a
// concurrent resolver cannot observe a half-created entry.
func (s *Store) Resolve(ctx context.Context, id Identity) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("resolve %q: begin: %w", id.PayeeName, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payees (account_ref, bank_account, sort_code, payee_name, building_society_num)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(bank_account, sort_code, payee_name, building_society_num) DO NOTHING`,
		uuid.NewString(), id.BankAccount, id.SortCode, id.PayeeName, id.BuildingSocietyNum)
	if err != nil {
		return "", fmt.Errorf("resolve %q: insert: %w", id.PayeeName, err)
	}

	var ref string
	err = tx.QueryRowContext(ctx, `
		SELECT account_ref FROM payees
		WHERE bank_account = ? AND sort_code = ? AND payee_name = ? AND building_society_num = ?`,
		id.BankAccount, id.SortCode, id.PayeeName, id.BuildingSocietyNum).Scan(&ref)
	if err != nil {
		return "", fmt.Errorf("resolve %q: lookup: %w", id.PayeeName, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("resolve %q: commit: %w", id.PayeeName, err)
	}
	return ref, nil
}
