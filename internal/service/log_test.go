package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nundung/gamebible/internal/apperror"
	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

type fakeLogRepo struct {
	repository.LogRepository
	gotFilter repository.LogFilter
}

func (f *fakeLogRepo) ListLogs(ctx context.Context, filter repository.LogFilter) ([]model.RequestLog, error) {
	f.gotFilter = filter
	return nil, nil
}

func TestLogList_FilterValidation(t *testing.T) {
	logs := &fakeLogRepo{}
	svc := NewLogService(logs)
	ctx := context.Background()

	if _, err := svc.List(ctx, repository.LogFilter{StartDate: "2026-08-01", EndDate: "2026-08-30", API: "post"}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if logs.gotFilter.API != "post" {
		t.Errorf("filter api = %q", logs.gotFilter.API)
	}

	bad := []repository.LogFilter{
		{StartDate: "08/01/2026"},
		{EndDate: "2026-8-1"},
		{API: "users"},
	}
	for _, filter := range bad {
		if _, err := svc.List(ctx, filter); !errors.Is(err, apperror.ErrBadRequest) {
			t.Errorf("filter %+v: got %v, want ErrBadRequest", filter, err)
		}
	}
}
