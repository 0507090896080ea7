package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fazenda-socios/portal-bfa-go/internal/infra/scheduler"
)

type countingPurger struct {
	calls int32
	err   error
}

func (p *countingPurger) DeleteOldEvents(context.Context) error {
	atomic.AddInt32(&p.calls, 1)
	return p.err
}

func TestAddEventCleanup_RejectsBadSchedule(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	assert.Error(t, s.AddEventCleanup("every day", &countingPurger{}))
	assert.NoError(t, s.AddEventCleanup("0 3 * * *", &countingPurger{}))
}

func TestRunEventCleanup_SwallowsErrors(t *testing.T) {
	s := scheduler.New(zap.NewNop())
	p := &countingPurger{err: errors.New("rpc failed")}

	require.NotPanics(t, func() { s.RunEventCleanup(p) })
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.calls))
}
