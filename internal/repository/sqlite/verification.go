package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/nundung/gamebible/internal/repository"
)

var _ repository.VerificationRepository = (*DB)(nil)

// CreateCode persists a verification code for the email. Re-requesting a
// code just adds a row; CodeValid accepts any un-expired one and the sweep
// clears the rest.
func (db *DB) CreateCode(ctx context.Context, email, code string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO email_verification (email, code, created_at)
		 VALUES (?, ?, ?)`,
		email, code, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting verification code: %w", err)
	}
	return nil
}

// CodeValid reports whether a matching code exists that is younger than
// maxAge. The age predicate is the actual expiry guarantee; the sweep only
// keeps the table small.
func (db *DB) CodeValid(ctx context.Context, email, code string, maxAge time.Duration) (bool, error) {
	var valid bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM email_verification
			WHERE email = ? AND code = ? AND created_at > ?)`,
		email, code, time.Now().Add(-maxAge),
	).Scan(&valid)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking verification code: %w", err)
	}
	return valid, nil
}

// DeleteExpired hard-deletes codes older than maxAge. Verification codes
// are the one table with no soft delete; a stale code has no audit value.
func (db *DB) DeleteExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM email_verification WHERE created_at < ?`,
		time.Now().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting expired codes: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return deleted, nil
}
