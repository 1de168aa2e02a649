package service

import (
	"context"
	"regexp"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Route groups the audit log can be filtered by.
var logAPIGroups = map[string]bool{
	"account": true,
	"admin":   true,
	"game":    true,
	"post":    true,
	"comment": true,
	"log":     true,
}

// LogService exposes the admin-facing request audit trail.
type LogService struct {
	logs repository.LogRepository
}

func NewLogService(logs repository.LogRepository) *LogService {
	return &LogService{logs: logs}
}

// List returns filtered audit rows, newest first.
func (s *LogService) List(ctx context.Context, filter repository.LogFilter) ([]model.RequestLog, error) {
	if filter.StartDate != "" && !datePattern.MatchString(filter.StartDate) {
		return nil, apperror.ValidationFailed("startdate", "날짜는 YYYY-MM-DD 형식이어야 합니다")
	}
	if filter.EndDate != "" && !datePattern.MatchString(filter.EndDate) {
		return nil, apperror.ValidationFailed("enddate", "날짜는 YYYY-MM-DD 형식이어야 합니다")
	}
	if filter.API != "" && !logAPIGroups[filter.API] {
		return nil, apperror.ValidationFailed("api", "올바르지 않은 API 그룹입니다")
	}
	return s.logs.ListLogs(ctx, filter)
}
