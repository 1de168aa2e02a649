// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, works
// everywhere Go works, and ":memory:" gives tests a throwaway database.
//
// This package is also the transactional workflow layer: signup, Kakao
// signup, game approval/denial, wiki commit, and the image swaps each run as
// one withTx call: pre-condition reads, the primary insert whose generated
// key feeds the dependent inserts, and any notification rows, committed or
// rolled back together. database/sql pins a BeginTx transaction to one
// pooled connection for its whole lifetime and returns it on Commit or
// Rollback, which is exactly the acquire/release discipline the workflows
// need.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DB wraps the connection pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests), configures the
// pragmas, and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a workflow transaction writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}
	// Writers briefly queue behind each other instead of failing with
	// SQLITE_BUSY when workflows overlap.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// Soft delete is a deleted_at timestamp everywhere. Uniqueness among live
// rows is enforced twice: the workflows pre-check inside their transaction
// (that is where the specific conflict messages come from), and partial
// unique indexes (WHERE deleted_at IS NULL) close the read-then-write race
// at the constraint level. Credential tables (account_local, account_kakao)
// carry no such index because their liveness lives on the joined users row;
// they rely on the in-transaction pre-check.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			nickname   TEXT NOT NULL,
			email      TEXT NOT NULL,
			is_admin   INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			deleted_at DATETIME
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_users_nickname_live
			ON users(nickname) WHERE deleted_at IS NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email_live
			ON users(email) WHERE deleted_at IS NULL;

		CREATE TABLE IF NOT EXISTS account_local (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_idx   INTEGER NOT NULL REFERENCES users(idx),
			login_id   TEXT NOT NULL,
			pw_hash    TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_account_local_login ON account_local(login_id);

		CREATE TABLE IF NOT EXISTS account_kakao (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_idx   INTEGER NOT NULL REFERENCES users(idx),
			kakao_key  INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_account_kakao_key ON account_kakao(kakao_key);

		CREATE TABLE IF NOT EXISTS profile_img (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_idx   INTEGER NOT NULL REFERENCES users(idx),
			img_path   TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			deleted_at DATETIME
		);

		CREATE TABLE IF NOT EXISTS game (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_idx   INTEGER NOT NULL REFERENCES users(idx),
			title      TEXT NOT NULL,
			title_kor  TEXT,
			title_eng  TEXT,
			created_at DATETIME NOT NULL,
			deleted_at DATETIME
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_game_title_kor_live
			ON game(title_kor) WHERE deleted_at IS NULL AND title_kor IS NOT NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS uq_game_title_eng_live
			ON game(title_eng) WHERE deleted_at IS NULL AND title_eng IS NOT NULL;

		CREATE TABLE IF NOT EXISTS request (
			idx          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_idx     INTEGER NOT NULL REFERENCES users(idx),
			title        TEXT NOT NULL,
			is_confirmed INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL,
			deleted_at   DATETIME
		);

		CREATE TABLE IF NOT EXISTS history (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			game_idx   INTEGER NOT NULL REFERENCES game(idx),
			user_idx   INTEGER NOT NULL REFERENCES users(idx),
			content    TEXT NOT NULL,
			created_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_history_game ON history(game_idx);

		CREATE TABLE IF NOT EXISTS game_img_thumbnail (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			game_idx   INTEGER NOT NULL REFERENCES game(idx),
			img_path   TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			deleted_at DATETIME
		);

		CREATE TABLE IF NOT EXISTS game_img_banner (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			game_idx   INTEGER NOT NULL REFERENCES game(idx),
			img_path   TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			deleted_at DATETIME
		);

		CREATE TABLE IF NOT EXISTS post (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_idx   INTEGER NOT NULL REFERENCES users(idx),
			game_idx   INTEGER NOT NULL REFERENCES game(idx),
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			deleted_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_post_game ON post(game_idx);

		CREATE TABLE IF NOT EXISTS view (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			post_idx   INTEGER NOT NULL REFERENCES post(idx),
			user_idx   INTEGER NOT NULL REFERENCES users(idx),
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_view_post ON view(post_idx);

		CREATE TABLE IF NOT EXISTS comment (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_idx   INTEGER NOT NULL REFERENCES users(idx),
			post_idx   INTEGER NOT NULL REFERENCES post(idx),
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			deleted_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_comment_post ON comment(post_idx);

		CREATE TABLE IF NOT EXISTS notification (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			type       INTEGER NOT NULL,
			user_idx   INTEGER NOT NULL REFERENCES users(idx),
			game_idx   INTEGER NOT NULL REFERENCES game(idx),
			post_idx   INTEGER REFERENCES post(idx),
			created_at DATETIME NOT NULL,
			deleted_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_notification_user ON notification(user_idx);

		CREATE TABLE IF NOT EXISTS email_verification (
			idx        INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT NOT NULL,
			code       TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_email_verification_email ON email_verification(email);

		CREATE TABLE IF NOT EXISTS request_log (
			idx                 INTEGER PRIMARY KEY AUTOINCREMENT,
			method              TEXT NOT NULL,
			url                 TEXT NOT NULL,
			status              INTEGER NOT NULL,
			user_idx            INTEGER,
			requested_timestamp DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx. The notification emitter
// takes one so an event can join a caller's workflow transaction or commit
// on its own (§ the generateNotification contract).
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction on a dedicated connection. Any error
// from fn rolls everything back; otherwise the transaction commits. The
// connection returns to the pool on every path; Commit and Rollback both
// release it, so a panic in fn still cannot leak the connection past the
// deferred rollback.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure from
// the driver, the backstop when two workflows pass the same pre-check
// before either commits. The driver exposes this in the message, not a
// typed error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isNoRows reports sql.ErrNoRows anywhere on the chain.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
