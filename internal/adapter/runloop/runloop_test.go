package runloop

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/logger"
	"github.com/tejashwikalptaru/osutune/internal/testutil"
)

func TestDispatchRunsTasksInOrder(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	r := New(logger.NewTestLogger())
	defer r.Close()

	results := make(chan int, 3)
	r.Dispatch(func() { results <- 1 })
	r.Dispatch(func() { results <- 2 })
	r.Dispatch(func() { results <- 3 })

	assert.Equal(t, 1, <-results)
	assert.Equal(t, 2, <-results)
	assert.Equal(t, 3, <-results)
}

func TestDispatchWaitCompletes(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	r := New(logger.NewTestLogger())
	defer r.Close()

	var ran atomic.Bool
	err := r.DispatchWait(func() { ran.Store(true) }, time.Second)

	require.NoError(t, err)
	assert.True(t, ran.Load())
}

func TestDispatchWaitTimesOut(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	r := New(logger.NewTestLogger())
	defer r.Close()

	blocker := make(chan struct{})
	r.Dispatch(func() { <-blocker })

	err := r.DispatchWait(func() {}, 50*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrDispatchTimeout)

	close(blocker)
}

func TestCloseDrainsPendingTasks(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	r := New(logger.NewTestLogger())

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		r.Dispatch(func() { count.Add(1) })
	}

	require.NoError(t, r.Close())
	assert.Equal(t, int32(10), count.Load())
}

func TestDispatchAfterCloseIsNoOp(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	r := New(logger.NewTestLogger())
	require.NoError(t, r.Close())

	// must not panic or block
	r.Dispatch(func() { t.Error("task ran after close") })

	err := r.DispatchWait(func() {}, time.Second)
	assert.ErrorIs(t, err, domain.ErrDispatcherClosed)

	assert.NoError(t, r.Close())
}

func TestPanickingTaskDoesNotKillLoop(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	r := New(logger.NewTestLogger())
	defer r.Close()

	r.Dispatch(func() { panic("boom") })

	var ran atomic.Bool
	err := r.DispatchWait(func() { ran.Store(true) }, time.Second)

	require.NoError(t, err)
	assert.True(t, ran.Load())
}
