package adherence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/cadence/internal/domain/adherence"
	"github.com/rpggio/cadence/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdherenceService_UpdateRecords(t *testing.T) {
	ctx := context.Background()
	tenantID := "study1"

	repo := &mocks.RecordRepository{}
	repo.On("Upsert", ctx, tenantID, mock.MatchedBy(func(records []adherence.Record) bool {
		return len(records) == 1 && records[0].UserID == "u1" && !records[0].UpdatedAt.IsZero()
	})).Return(nil)

	svc := adherence.NewService(repo, nil)
	out, err := svc.UpdateRecords(ctx, tenantID, "u1", []adherence.Record{{
		InstanceGuid: "inst1",
		StartedOn:    ptr(enrolledAt),
		FinishedOn:   ptr(enrolledAt.Add(10 * time.Minute)),
	}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	repo.AssertExpectations(t)
}

func TestAdherenceService_UpdateRecordsValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.RecordRepository{}
	svc := adherence.NewService(repo, nil)

	_, err := svc.UpdateRecords(ctx, "study1", "", []adherence.Record{{InstanceGuid: "inst1"}})
	require.ErrorIs(t, err, adherence.ErrInvalidRecord)

	_, err = svc.UpdateRecords(ctx, "study1", "u1", []adherence.Record{{}})
	require.ErrorIs(t, err, adherence.ErrInvalidRecord)

	_, err = svc.UpdateRecords(ctx, "study1", "u1", []adherence.Record{{
		InstanceGuid: "inst1",
		StartedOn:    ptr(enrolledAt),
		FinishedOn:   ptr(enrolledAt.Add(-1)),
	}})
	require.ErrorIs(t, err, adherence.ErrInvalidRecord)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdherenceService_ListRecordsWrapsErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	repo := &mocks.RecordRepository{}
	repo.On("List", ctx, "study1", "u1").Return(([]adherence.Record)(nil), boom)

	svc := adherence.NewService(repo, nil)
	_, err := svc.ListRecords(ctx, "study1", "u1")
	require.ErrorIs(t, err, boom)
}
