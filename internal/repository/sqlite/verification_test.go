package sqlite

import (
	"context"
	"testing"
	"time"
)

func TestCodeValid(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateCode(ctx, "verify@example.com", "04321"); err != nil {
		t.Fatalf("CreateCode() error = %v", err)
	}

	valid, err := db.CodeValid(ctx, "verify@example.com", "04321", 5*time.Minute)
	if err != nil {
		t.Fatalf("CodeValid() error = %v", err)
	}
	if !valid {
		t.Error("fresh code reported invalid")
	}

	// Wrong code, wrong email.
	valid, err = db.CodeValid(ctx, "verify@example.com", "99999", 5*time.Minute)
	if err != nil {
		t.Fatalf("CodeValid() error = %v", err)
	}
	if valid {
		t.Error("wrong code reported valid")
	}
	valid, err = db.CodeValid(ctx, "someone-else@example.com", "04321", 5*time.Minute)
	if err != nil {
		t.Fatalf("CodeValid() error = %v", err)
	}
	if valid {
		t.Error("code accepted for a different email")
	}
}

func TestCodeValid_ExpiresByAge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateCode(ctx, "stale@example.com", "11111"); err != nil {
		t.Fatalf("CreateCode() error = %v", err)
	}
	// Backdate the row past the expiry window. Validity comes from the age
	// predicate, whether or not a sweep has run.
	if _, err := db.conn.Exec(
		`UPDATE email_verification SET created_at = ? WHERE email = ?`,
		time.Now().Add(-10*time.Minute), "stale@example.com",
	); err != nil {
		t.Fatalf("backdating code: %v", err)
	}

	valid, err := db.CodeValid(ctx, "stale@example.com", "11111", 5*time.Minute)
	if err != nil {
		t.Fatalf("CodeValid() error = %v", err)
	}
	if valid {
		t.Error("expired code reported valid")
	}
}

func TestDeleteExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateCode(ctx, "fresh@example.com", "22222"); err != nil {
		t.Fatalf("CreateCode() error = %v", err)
	}
	if err := db.CreateCode(ctx, "old@example.com", "33333"); err != nil {
		t.Fatalf("CreateCode() error = %v", err)
	}
	if _, err := db.conn.Exec(
		`UPDATE email_verification SET created_at = ? WHERE email = ?`,
		time.Now().Add(-time.Hour), "old@example.com",
	); err != nil {
		t.Fatalf("backdating code: %v", err)
	}

	deleted, err := db.DeleteExpired(ctx, 5*time.Minute)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM email_verification`); n != 1 {
		t.Errorf("remaining codes = %d, want 1", n)
	}
}
