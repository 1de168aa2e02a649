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

var _ repository.GameRepository = (*DB)(nil)

// imageTable maps an image kind to its table. Only ever called with the two
// model constants, so unknown kinds panic at development time rather than
// turning into SQL injection surface.
func imageTable(kind model.GameImageKind) string {
	switch kind {
	case model.GameImageThumbnail:
		return "game_img_thumbnail"
	case model.GameImageBanner:
		return "game_img_banner"
	}
	panic(fmt.Sprintf("sqlite: unknown game image kind %q", kind))
}

func (db *DB) TitleTaken(ctx context.Context, title string) (bool, error) {
	var taken bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM game WHERE title = ? AND deleted_at IS NULL)`,
		title,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking game title: %w", err)
	}
	return taken, nil
}

func (db *DB) GameExists(ctx context.Context, gameIdx int64) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM game WHERE idx = ? AND deleted_at IS NULL)`,
		gameIdx,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking game %d: %w", gameIdx, err)
	}
	return exists, nil
}

// CreateRequest files a game-creation proposal for an admin to resolve.
func (db *DB) CreateRequest(ctx context.Context, userIdx int64, title string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO request (user_idx, title, created_at) VALUES (?, ?, ?)`,
		userIdx, title, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting game request: %w", err)
	}
	return nil
}

// ListRequests pages unresolved requests newest-first by keyset.
func (db *DB) ListRequests(ctx context.Context, lastIdx int64, limit int) ([]model.GameRequest, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT idx, user_idx, title, is_confirmed, created_at
		FROM request
		WHERE deleted_at IS NULL`
	args := []any{}
	if lastIdx > 0 {
		query += ` AND idx < ?`
		args = append(args, lastIdx)
	}
	query += ` ORDER BY idx DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing game requests: %w", err)
	}
	defer rows.Close()

	requests := make([]model.GameRequest, 0, limit)
	for rows.Next() {
		var r model.GameRequest
		if err := rows.Scan(&r.Idx, &r.UserIdx, &r.Title, &r.IsConfirmed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning request row: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating requests: %w", err)
	}
	return requests, nil
}

// ApproveRequest is the game-approval workflow.
//
// One transaction: resolve the request (capturing the requester), title
// uniqueness pre-checks on both variants, insert the game and fan its new
// idx out into the welcome post, the thumbnail row, and the banner row.
// A missing request is NotFound; a title collision is Conflict; either way
// nothing is applied and the request stays unresolved.
func (db *DB) ApproveRequest(ctx context.Context, cmd repository.ApproveGameCommand) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()

		var requesterIdx int64
		err := tx.QueryRowContext(ctx,
			`UPDATE request SET deleted_at = ?, is_confirmed = 1
			 WHERE idx = ? AND deleted_at IS NULL
			 RETURNING user_idx`,
			now, cmd.RequestIdx,
		).Scan(&requesterIdx)
		if err != nil {
			if isNoRows(err) {
				return apperror.NotFound("요청이 존재하지 않습니다")
			}
			return fmt.Errorf("sqlite: resolving request %d: %w", cmd.RequestIdx, err)
		}

		for _, title := range []string{cmd.TitleEng, cmd.TitleKor} {
			var taken bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(
					SELECT 1 FROM game
					WHERE (title_eng = ? OR title_kor = ?) AND deleted_at IS NULL)`,
				title, title,
			).Scan(&taken)
			if err != nil {
				return fmt.Errorf("sqlite: checking game title: %w", err)
			}
			if taken {
				return apperror.Conflict("이미 존재하는 게임입니다")
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO game (title, title_kor, title_eng, user_idx, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			cmd.Title, cmd.TitleKor, cmd.TitleEng, requesterIdx, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("이미 존재하는 게임입니다")
			}
			return fmt.Errorf("sqlite: inserting game: %w", err)
		}
		gameIdx, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading new game idx: %w", err)
		}

		// Welcome post, authored by the approving admin.
		postTitle := fmt.Sprintf("새로운 게임 %q이 생성되었습니다", cmd.Title)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post (title, content, user_idx, game_idx, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			postTitle, "많은 이용부탁드립니다~", cmd.AdminIdx, gameIdx, now,
		); err != nil {
			return fmt.Errorf("sqlite: inserting welcome post: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_img_thumbnail (game_idx, img_path, created_at)
			 VALUES (?, ?, ?)`,
			gameIdx, cmd.ThumbnailPath, now,
		); err != nil {
			return fmt.Errorf("sqlite: inserting thumbnail: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_img_banner (game_idx, img_path, created_at)
			 VALUES (?, ?, ?)`,
			gameIdx, cmd.BannerPath, now,
		); err != nil {
			return fmt.Errorf("sqlite: inserting banner: %w", err)
		}
		return nil
	})
}

// DenyRequest is the game-denial workflow.
//
// One transaction: resolve the request as denied, fabricate a game row that
// is born soft-deleted (the anchor the denial notification's game_idx
// foreign key needs, since every notification kind shares that FK), and
// emit the game-denied notification to the requester.
func (db *DB) DenyRequest(ctx context.Context, requestIdx int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()

		var (
			requesterIdx int64
			title        string
		)
		err := tx.QueryRowContext(ctx,
			`UPDATE request SET deleted_at = ?, is_confirmed = 0
			 WHERE idx = ? AND deleted_at IS NULL
			 RETURNING user_idx, title`,
			now, requestIdx,
		).Scan(&requesterIdx, &title)
		if err != nil {
			if isNoRows(err) {
				return apperror.NotFound("요청이 존재하지 않습니다")
			}
			return fmt.Errorf("sqlite: resolving request %d: %w", requestIdx, err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO game (user_idx, title, created_at, deleted_at)
			 VALUES (?, ?, ?, ?)`,
			requesterIdx, title, now, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting placeholder game: %w", err)
		}
		gameIdx, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading placeholder game idx: %w", err)
		}

		return insertNotification(ctx, tx, &model.Notification{
			Type:    model.NotificationGameDenied,
			UserIdx: requesterIdx,
			GameIdx: gameIdx,
		})
	})
}

// ListGames returns one alphabetical page of live games plus the total count.
func (db *DB) ListGames(ctx context.Context, page, perPage int) ([]model.GameSummary, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	var total int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game WHERE deleted_at IS NULL`,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting games: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT idx, title, created_at
		 FROM game
		 WHERE deleted_at IS NULL
		 ORDER BY title ASC
		 LIMIT ? OFFSET ?`,
		perPage, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing games: %w", err)
	}
	defer rows.Close()

	games := make([]model.GameSummary, 0, perPage)
	for rows.Next() {
		var g model.GameSummary
		if err := rows.Scan(&g.Idx, &g.Title, &g.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating games: %w", err)
	}
	return games, total, nil
}

// SearchGames matches the Korean or English title and joins each hit with
// its live thumbnail.
func (db *DB) SearchGames(ctx context.Context, title string) ([]model.GameSummary, error) {
	pattern := "%" + title + "%"
	rows, err := db.conn.QueryContext(ctx,
		`SELECT g.idx, g.title, t.img_path, g.created_at
		 FROM game g
		 JOIN game_img_thumbnail t ON g.idx = t.game_idx AND t.deleted_at IS NULL
		 WHERE (g.title_kor LIKE ? OR g.title_eng LIKE ?)
		 AND g.deleted_at IS NULL`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching games: %w", err)
	}
	defer rows.Close()

	var games []model.GameSummary
	for rows.Next() {
		var g model.GameSummary
		if err := rows.Scan(&g.Idx, &g.Title, &g.ImgPath, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning search row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating search results: %w", err)
	}
	return games, nil
}

// Popular orders games by how many posts their boards carry. The caller
// supplies the window (the front page shows 19, later pages 16).
func (db *DB) PopularGames(ctx context.Context, limit, offset int) ([]model.GameSummary, int64, error) {
	var total int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game WHERE deleted_at IS NULL`,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting games: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT g.idx, g.title, COUNT(p.idx) AS post_count, t.img_path, g.created_at
		 FROM game g
		 JOIN post p ON g.idx = p.game_idx
		 JOIN game_img_thumbnail t ON g.idx = t.game_idx AND t.deleted_at IS NULL
		 WHERE g.deleted_at IS NULL
		 GROUP BY g.idx, g.title, t.img_path
		 ORDER BY post_count DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing popular games: %w", err)
	}
	defer rows.Close()

	games := make([]model.GameSummary, 0, limit)
	for rows.Next() {
		var g model.GameSummary
		if err := rows.Scan(&g.Idx, &g.Title, &g.PostCount, &g.ImgPath, &g.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning popular row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating popular games: %w", err)
	}
	return games, total, nil
}

// LiveImagePaths returns the non-deleted image paths of the given kind.
func (db *DB) LiveImagePaths(ctx context.Context, gameIdx int64, kind model.GameImageKind) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT img_path FROM %s
			WHERE game_idx = ? AND deleted_at IS NULL`, imageTable(kind)),
		gameIdx,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s images: %w", kind, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("sqlite: scanning image path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating image paths: %w", err)
	}
	return paths, nil
}

// ReplaceGameImage swaps a game's thumbnail or banner: soft-delete the
// live rows, insert the new path, one transaction.
func (db *DB) ReplaceGameImage(ctx context.Context, gameIdx int64, kind model.GameImageKind, imgPath string) error {
	table := imageTable(kind)
	return db.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET deleted_at = ?
				WHERE game_idx = ? AND deleted_at IS NULL`, table),
			now, gameIdx,
		); err != nil {
			return fmt.Errorf("sqlite: retiring %s image: %w", kind, err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (game_idx, img_path, created_at)
				VALUES (?, ?, ?)`, table),
			gameIdx, imgPath, now,
		); err != nil {
			return fmt.Errorf("sqlite: inserting %s image: %w", kind, err)
		}
		return nil
	})
}
