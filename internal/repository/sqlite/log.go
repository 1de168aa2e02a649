package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

var _ repository.LogRepository = (*DB)(nil)

func (db *DB) InsertLog(ctx context.Context, entry *model.RequestLog) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO request_log (method, url, status, user_idx, requested_timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Method, entry.URL, entry.Status, entry.UserIdx, entry.RequestedTimestamp,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting request log: %w", err)
	}
	return nil
}

// ListLogs returns audit rows newest-first, narrowed by whatever filter
// fields are set. The API filter matches the route group prefix, so
// "game" finds both /game and /game/1/wiki.
func (db *DB) ListLogs(ctx context.Context, filter repository.LogFilter) ([]model.RequestLog, error) {
	var (
		conds []string
		args  []any
	)
	if filter.StartDate != "" {
		conds = append(conds, `date(requested_timestamp) >= ?`)
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		conds = append(conds, `date(requested_timestamp) <= ?`)
		args = append(args, filter.EndDate)
	}
	if filter.Idx > 0 {
		conds = append(conds, `user_idx = ?`)
		args = append(args, filter.Idx)
	}
	if filter.API != "" {
		conds = append(conds, `url LIKE ?`)
		args = append(args, "/"+strings.Trim(filter.API, "/")+"%")
	}

	query := `SELECT idx, method, url, status, user_idx, requested_timestamp FROM request_log`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY requested_timestamp DESC, idx DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing request logs: %w", err)
	}
	defer rows.Close()

	var entries []model.RequestLog
	for rows.Next() {
		var (
			e       model.RequestLog
			userIdx sql.NullInt64
		)
		if err := rows.Scan(&e.Idx, &e.Method, &e.URL, &e.Status, &userIdx, &e.RequestedTimestamp); err != nil {
			return nil, fmt.Errorf("sqlite: scanning log row: %w", err)
		}
		if userIdx.Valid {
			e.UserIdx = &userIdx.Int64
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating request logs: %w", err)
	}
	return entries, nil
}
