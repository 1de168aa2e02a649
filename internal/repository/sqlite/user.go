package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateLocalUser is the signup workflow.
//
// Inside one transaction: three uniqueness pre-checks among active users
// (login id, nickname, email; each failure is a Conflict with its own
// message and rolls everything back), then the users insert whose generated
// idx feeds the account_local insert. The partial unique indexes on
// users(nickname)/users(email) catch the pre-check race; a constraint
// violation surfaces as the same Conflict.
func (db *DB) CreateLocalUser(ctx context.Context, loginID, pwHash, nickname, email string) (int64, error) {
	var userIdx int64

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := loginIDTaken(ctx, tx, loginID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("이미 존재하는 아이디입니다")
		}

		taken, err = nicknameTaken(ctx, tx, nickname)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("이미 존재하는 닉네임입니다")
		}

		taken, err = emailTaken(ctx, tx, email)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("이미 존재하는 이메일입니다")
		}

		userIdx, err = insertUser(ctx, tx, nickname, email, false)
		if err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO account_local (user_idx, login_id, pw_hash, created_at)
			 VALUES (?, ?, ?, ?)`,
			userIdx, loginID, pwHash, now,
		); err != nil {
			return fmt.Errorf("sqlite: inserting local account: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userIdx, nil
}

// GetOrCreateKakaoUser is the Kakao signup workflow.
//
// Looks up an active user by kakao key; when none exists it verifies the
// email is not already a local signup (Conflict), draws nicknames from the
// generator until one is free, and inserts users + account_kakao. Repeat
// Kakao logins take the lookup path and write nothing.
func (db *DB) GetOrCreateKakaoUser(ctx context.Context, kakaoKey int64, email string, nickname func() string) (*model.User, error) {
	var user *model.User

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := userByKakaoKey(ctx, tx, kakaoKey)
		if err != nil {
			return err
		}
		if existing != nil {
			user = existing
			return nil
		}

		taken, err := emailTaken(ctx, tx, email)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("일반 회원가입으로 가입된 사용자입니다")
		}

		// Collisions on a 20-char random nickname are vanishingly rare,
		// but retry regardless.
		name := nickname()
		for {
			taken, err := nicknameTaken(ctx, tx, name)
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			name = nickname()
		}

		userIdx, err := insertUser(ctx, tx, name, email, false)
		if err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO account_kakao (user_idx, kakao_key, created_at)
			 VALUES (?, ?, ?)`,
			userIdx, kakaoKey, now,
		); err != nil {
			return fmt.Errorf("sqlite: inserting kakao account: %w", err)
		}

		user = &model.User{
			Idx:       userIdx,
			Nickname:  name,
			Email:     email,
			CreatedAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetLocalCredentials returns the active user and stored bcrypt hash for a
// login id. NotFound covers both "no such id" and soft-deleted owners.
func (db *DB) GetLocalCredentials(ctx context.Context, loginID string) (*model.User, string, error) {
	var (
		u      model.User
		pwHash string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT u.idx, u.nickname, u.email, u.is_admin, u.created_at, al.pw_hash
		 FROM account_local al
		 JOIN users u ON al.user_idx = u.idx
		 WHERE al.login_id = ? AND u.deleted_at IS NULL`,
		loginID,
	).Scan(&u.Idx, &u.Nickname, &u.Email, &u.IsAdmin, &u.CreatedAt, &pwHash)
	if err != nil {
		if isNoRows(err) {
			return nil, "", apperror.NotFound("해당 아이디로 가입된 사용자가 없습니다")
		}
		return nil, "", fmt.Errorf("sqlite: looking up local account %q: %w", loginID, err)
	}
	return &u, pwHash, nil
}

func (db *DB) LoginIDTaken(ctx context.Context, loginID string) (bool, error) {
	return loginIDTaken(ctx, db.conn, loginID)
}

func (db *DB) NicknameTaken(ctx context.Context, nickname string) (bool, error) {
	return nicknameTaken(ctx, db.conn, nickname)
}

func (db *DB) EmailTaken(ctx context.Context, email string) (bool, error) {
	return emailTaken(ctx, db.conn, email)
}

// FindLoginIDByEmail returns the login id for an active user's email.
func (db *DB) FindLoginIDByEmail(ctx context.Context, email string) (string, error) {
	var loginID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT al.login_id
		 FROM account_local al
		 JOIN users u ON al.user_idx = u.idx
		 WHERE u.email = ? AND u.deleted_at IS NULL`,
		email,
	).Scan(&loginID)
	if err != nil {
		if isNoRows(err) {
			return "", apperror.NotFound("일치하는 사용자가 없습니다")
		}
		return "", fmt.Errorf("sqlite: finding login id by email: %w", err)
	}
	return loginID, nil
}

// FindUserIdxByEmail returns the active user index for an email, for the
// password-reset mail.
func (db *DB) FindUserIdxByEmail(ctx context.Context, email string) (int64, error) {
	var idx int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT idx FROM users WHERE email = ? AND deleted_at IS NULL`,
		email,
	).Scan(&idx)
	if err != nil {
		if isNoRows(err) {
			return 0, apperror.NotFound("사용자 정보 조회 실패")
		}
		return 0, fmt.Errorf("sqlite: finding user by email: %w", err)
	}
	return idx, nil
}

// GetInfo returns the user row plus whichever credential exists (login id
// for local users, kakao key for Kakao users).
func (db *DB) GetInfo(ctx context.Context, userIdx int64) (*model.UserInfo, error) {
	var (
		info     model.UserInfo
		loginID  sql.NullString
		kakaoKey sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT u.idx, u.is_admin, u.nickname, u.email, u.created_at, al.login_id, ak.kakao_key
		 FROM users u
		 LEFT JOIN account_local al ON u.idx = al.user_idx
		 LEFT JOIN account_kakao ak ON u.idx = ak.user_idx
		 WHERE u.idx = ? AND u.deleted_at IS NULL`,
		userIdx,
	).Scan(&info.Idx, &info.IsAdmin, &info.Nickname, &info.Email, &info.CreatedAt, &loginID, &kakaoKey)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("사용자 정보 조회 실패")
		}
		return nil, fmt.Errorf("sqlite: getting user info %d: %w", userIdx, err)
	}
	if loginID.Valid {
		info.LoginID = loginID.String
	}
	if kakaoKey.Valid {
		info.KakaoKey = &kakaoKey.Int64
	}
	return &info, nil
}

// UpdateInfo changes nickname and email, with uniqueness checks that
// exclude the user's own current values.
func (db *DB) UpdateInfo(ctx context.Context, userIdx int64, nickname, email string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var taken bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(
				SELECT 1 FROM users
				WHERE nickname = ? AND idx <> ? AND deleted_at IS NULL)`,
			nickname, userIdx,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("sqlite: checking nickname: %w", err)
		}
		if taken {
			return apperror.Conflict("이미 존재하는 닉네임입니다")
		}

		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(
				SELECT 1 FROM users
				WHERE email = ? AND idx <> ? AND deleted_at IS NULL)`,
			email, userIdx,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("sqlite: checking email: %w", err)
		}
		if taken {
			return apperror.Conflict("이미 존재하는 이메일입니다")
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET nickname = ?, email = ?
			 WHERE idx = ? AND deleted_at IS NULL`,
			nickname, email, userIdx,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("이미 존재하는 닉네임 또는 이메일입니다")
			}
			return fmt.Errorf("sqlite: updating user %d: %w", userIdx, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if affected == 0 {
			return apperror.Forbidden("내 정보 수정 실패")
		}
		return nil
	})
}

// UpdatePassword replaces the stored hash for the user's local account.
func (db *DB) UpdatePassword(ctx context.Context, userIdx int64, pwHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE account_local SET pw_hash = ? WHERE user_idx = ?`,
		pwHash, userIdx,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %d: %w", userIdx, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.BadRequest("비밀번호 변경 실패")
	}
	return nil
}

// SoftDelete marks the user withdrawn. The row stays; uniqueness and
// listings stop seeing it.
func (db *DB) SoftDelete(ctx context.Context, userIdx int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET deleted_at = ? WHERE idx = ? AND deleted_at IS NULL`,
		time.Now(), userIdx,
	)
	if err != nil {
		return fmt.Errorf("sqlite: soft-deleting user %d: %w", userIdx, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.Forbidden("회원 탈퇴 실패")
	}
	return nil
}

// SwapProfileImage is the profile-image workflow: soft-delete whatever
// profile_img rows are live, insert the new one, one transaction.
func (db *DB) SwapProfileImage(ctx context.Context, userIdx int64, imgPath string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE profile_img SET deleted_at = ?
			 WHERE user_idx = ? AND deleted_at IS NULL`,
			now, userIdx,
		); err != nil {
			return fmt.Errorf("sqlite: retiring profile image: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profile_img (user_idx, img_path, created_at)
			 VALUES (?, ?, ?)`,
			userIdx, imgPath, now,
		); err != nil {
			return fmt.Errorf("sqlite: inserting profile image: %w", err)
		}
		return nil
	})
}

// --- shared helpers, usable inside or outside a transaction ---

func insertUser(ctx context.Context, q execer, nickname, email string, isAdmin bool) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO users (nickname, email, is_admin, created_at)
		 VALUES (?, ?, ?, ?)`,
		nickname, email, isAdmin, time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperror.Conflict("이미 존재하는 닉네임 또는 이메일입니다")
		}
		return 0, fmt.Errorf("sqlite: inserting user: %w", err)
	}
	idx, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading new user idx: %w", err)
	}
	return idx, nil
}

func loginIDTaken(ctx context.Context, q execer, loginID string) (bool, error) {
	var taken bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM account_local al
			JOIN users u ON al.user_idx = u.idx
			WHERE al.login_id = ? AND u.deleted_at IS NULL)`,
		loginID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking login id: %w", err)
	}
	return taken, nil
}

func nicknameTaken(ctx context.Context, q execer, nickname string) (bool, error) {
	var taken bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM users WHERE nickname = ? AND deleted_at IS NULL)`,
		nickname,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking nickname: %w", err)
	}
	return taken, nil
}

func emailTaken(ctx context.Context, q execer, email string) (bool, error) {
	var taken bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM users WHERE email = ? AND deleted_at IS NULL)`,
		email,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking email: %w", err)
	}
	return taken, nil
}

func userByKakaoKey(ctx context.Context, q execer, kakaoKey int64) (*model.User, error) {
	var u model.User
	err := q.QueryRowContext(ctx,
		`SELECT u.idx, u.nickname, u.email, u.is_admin, u.created_at
		 FROM account_kakao ak
		 JOIN users u ON ak.user_idx = u.idx
		 WHERE ak.kakao_key = ? AND u.deleted_at IS NULL`,
		kakaoKey,
	).Scan(&u.Idx, &u.Nickname, &u.Email, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: looking up kakao account %d: %w", kakaoKey, err)
	}
	return &u, nil
}
