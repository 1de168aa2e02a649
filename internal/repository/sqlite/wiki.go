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

var _ repository.WikiRepository = (*DB)(nil)

// LatestWiki returns the newest committed revision of a game's wiki. Draft
// rows (NULL created_at) never count.
func (db *DB) LatestWiki(ctx context.Context, gameIdx int64) (*model.WikiHistory, error) {
	var h model.WikiHistory
	err := db.conn.QueryRowContext(ctx,
		`SELECT h.idx, h.game_idx, h.user_idx, h.content, h.created_at
		 FROM history h
		 JOIN game g ON h.game_idx = g.idx AND g.deleted_at IS NULL
		 WHERE h.game_idx = ? AND h.created_at IS NOT NULL
		 ORDER BY h.created_at DESC, h.idx DESC
		 LIMIT 1`,
		gameIdx,
	).Scan(&h.Idx, &h.GameIdx, &h.UserIdx, &h.Content, &h.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("위키가 존재하지 않습니다")
		}
		return nil, fmt.Errorf("sqlite: loading latest wiki: %w", err)
	}
	return &h, nil
}

// CreateWikiDraft opens an edit session by cloning the current revision
// into a draft row. Drafts are rows with NULL created_at; they give the
// editor the live content to start from and are superseded when the edit
// is committed. A game with no wiki yet drafts from empty content.
func (db *DB) CreateWikiDraft(ctx context.Context, gameIdx, userIdx int64) (*model.WikiHistory, error) {
	var draft model.WikiHistory
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var live bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(
				SELECT 1 FROM game WHERE idx = ? AND deleted_at IS NULL)`,
			gameIdx,
		).Scan(&live)
		if err != nil {
			return fmt.Errorf("sqlite: checking game %d: %w", gameIdx, err)
		}
		if !live {
			return apperror.NotFound("게임이 존재하지 않습니다")
		}

		var content string
		err = tx.QueryRowContext(ctx,
			`SELECT content FROM history
			 WHERE game_idx = ? AND created_at IS NOT NULL
			 ORDER BY created_at DESC, idx DESC
			 LIMIT 1`,
			gameIdx,
		).Scan(&content)
		if err != nil && !isNoRows(err) {
			return fmt.Errorf("sqlite: loading wiki for draft: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO history (game_idx, user_idx, content, created_at)
			 VALUES (?, ?, ?, NULL)`,
			gameIdx, userIdx, content,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting wiki draft: %w", err)
		}
		idx, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading draft idx: %w", err)
		}

		draft = model.WikiHistory{
			Idx:     idx,
			GameIdx: gameIdx,
			UserIdx: userIdx,
			Content: content,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// CommitWiki is the wiki-commit workflow.
//
// One transaction: write the new timestamped revision, then notify every
// distinct earlier contributor except the editor. The notifications land
// with the revision or not at all.
func (db *DB) CommitWiki(ctx context.Context, gameIdx, userIdx int64, content string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO history (game_idx, user_idx, content, created_at)
			 VALUES (?, ?, ?, ?)`,
			gameIdx, userIdx, content, now,
		); err != nil {
			return fmt.Errorf("sqlite: inserting wiki revision: %w", err)
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT DISTINCT user_idx
			 FROM history
			 WHERE game_idx = ? AND created_at IS NOT NULL AND user_idx != ?`,
			gameIdx, userIdx,
		)
		if err != nil {
			return fmt.Errorf("sqlite: listing wiki contributors: %w", err)
		}
		defer rows.Close()

		var contributors []int64
		for rows.Next() {
			var idx int64
			if err := rows.Scan(&idx); err != nil {
				return fmt.Errorf("sqlite: scanning contributor: %w", err)
			}
			contributors = append(contributors, idx)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("sqlite: iterating contributors: %w", err)
		}

		return insertNotifications(ctx, tx, model.NotificationGameModified, gameIdx, contributors)
	})
}

// ListWikiHistory returns committed revisions newest-first with the
// editors' nicknames joined in.
func (db *DB) ListWikiHistory(ctx context.Context, gameIdx int64) ([]model.WikiHistory, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT h.idx, h.game_idx, h.user_idx, h.created_at, u.nickname
		 FROM history h
		 JOIN users u ON h.user_idx = u.idx
		 JOIN game g ON h.game_idx = g.idx AND g.deleted_at IS NULL
		 WHERE h.game_idx = ? AND h.created_at IS NOT NULL
		 ORDER BY h.created_at DESC, h.idx DESC`,
		gameIdx,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing wiki history: %w", err)
	}
	defer rows.Close()

	var history []model.WikiHistory
	for rows.Next() {
		var h model.WikiHistory
		if err := rows.Scan(&h.Idx, &h.GameIdx, &h.UserIdx, &h.CreatedAt, &h.Nickname); err != nil {
			return nil, fmt.Errorf("sqlite: scanning history row: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating wiki history: %w", err)
	}
	return history, nil
}

// GetWikiRevision loads one revision by idx, draft rows included so an
// editor can reopen an edit session.
func (db *DB) GetWikiRevision(ctx context.Context, gameIdx, historyIdx int64) (*model.WikiHistory, error) {
	var h model.WikiHistory
	err := db.conn.QueryRowContext(ctx,
		`SELECT h.idx, h.game_idx, h.user_idx, h.content, h.created_at, u.nickname
		 FROM history h
		 JOIN users u ON h.user_idx = u.idx
		 WHERE h.idx = ? AND h.game_idx = ?`,
		historyIdx, gameIdx,
	).Scan(&h.Idx, &h.GameIdx, &h.UserIdx, &h.Content, &h.CreatedAt, &h.Nickname)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("해당 버전이 존재하지 않습니다")
		}
		return nil, fmt.Errorf("sqlite: loading wiki revision: %w", err)
	}
	return &h, nil
}
