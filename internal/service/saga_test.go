package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

func recordStep(log *[]string, name string, err error) SagaStepFunc {
	return func(context.Context) error {
		*log = append(*log, name)
		return err
	}
}

func TestSagaRunsAllSteps(t *testing.T) {
	var log []string
	err := newSaga("test", zap.NewNop(), nil).
		Step("a", recordStep(&log, "a", nil), recordStep(&log, "undo a", nil)).
		Step("b", recordStep(&log, "b", nil), recordStep(&log, "undo b", nil)).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, log)
}

func TestSagaCompensatesInReverse(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	metrics := NewMetricsService()
	err := newSaga("test", zap.NewNop(), metrics).
		Step("a", recordStep(&log, "a", nil), recordStep(&log, "undo a", nil)).
		Step("b", recordStep(&log, "b", nil), nil).
		Step("c", recordStep(&log, "c", nil), recordStep(&log, "undo c", nil)).
		Step("d", recordStep(&log, "d", boom), recordStep(&log, "undo d", nil)).
		Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b", "c", "d", "undo c", "undo a"}, log)
	assert.Equal(t, uint64(2), metrics.Snapshot().Compensations)
}

func TestSagaReportsFailedCompensation(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	undoErr := errors.New("cannot undo")
	err := newSaga("create_student", zap.NewNop(), nil).
		Step("identity", recordStep(&log, "identity", nil), recordStep(&log, "undo identity", nil)).
		Step("profile", recordStep(&log, "profile", nil), recordStep(&log, "undo profile", undoErr)).
		Step("student", recordStep(&log, "student", boom), nil).
		Run(context.Background())

	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCompensationFailed.Code, appErr.Code)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, undoErr)
	assert.Equal(t, []string{"identity", "profile", "student", "undo profile", "undo identity"}, log)
}

func TestSagaCompensatesAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var undone bool
	err := newSaga("test", zap.NewNop(), nil).
		Step("a", func(context.Context) error { return nil }, func(ctx context.Context) error {
			undone = ctx.Err() == nil
			return nil
		}).
		Step("b", func(context.Context) error {
			cancel()
			return context.Canceled
		}, nil).
		Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, undone)
}
