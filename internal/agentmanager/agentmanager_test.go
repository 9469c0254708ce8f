package agentmanager

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentLifecycle(t *testing.T) {
	m := New()
	id := m.Spawn("test-agent", "Testing agent lifecycle", func(ctx context.Context) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "success", nil
	})

	status, ok := m.GetStatus(id)
	require.True(t, ok)
	assert.Equal(t, "test-agent", status.Name)

	result, err := m.Wait(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "success", result)
}

func TestAgentCancellation(t *testing.T) {
	m := New()
	started := make(chan struct{})
	id := m.Spawn("long-agent", "Long running task", func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(10 * time.Second):
			return "should not see this", nil
		}
	})

	<-started
	require.NoError(t, m.Cancel(id))

	_, err := m.Wait(context.Background(), id)
	require.Error(t, err)
}

func TestParallelExecution(t *testing.T) {
	m := New()
	var ids []AgentID
	for i := 0; i < 3; i++ {
		i := i
		ids = append(ids, m.Spawn("agent", "desc", func(ctx context.Context) (string, error) {
			time.Sleep(30 * time.Millisecond)
			return fmt.Sprint(i), nil
		}))
	}

	assert.Equal(t, 3, m.ActiveCount())
	results, err := m.WaitAllParallel(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, 0, m.ActiveCount())
}

func TestAgentFailureHandling(t *testing.T) {
	m := New()
	id := m.Spawn("failing-agent", "This will fail", func(ctx context.Context) (string, error) {
		return "", errors.New("intentional error")
	})

	_, err := m.Wait(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intentional error")
}

func TestWaitAllSuccess(t *testing.T) {
	m := New()
	id1 := m.Spawn("a1", "desc", func(ctx context.Context) (string, error) { return "result1", nil })
	id2 := m.Spawn("a2", "desc", func(ctx context.Context) (string, error) { return "result2", nil })

	results, err := m.WaitAll(context.Background(), []AgentID{id1, id2})
	require.NoError(t, err)
	assert.Equal(t, []string{"result1", "result2"}, results)
}

func TestWaitAllWithFailure(t *testing.T) {
	m := New()
	id1 := m.Spawn("a1", "desc", func(ctx context.Context) (string, error) { return "ok", nil })
	id2 := m.Spawn("a2", "desc", func(ctx context.Context) (string, error) { return "", errors.New("boom") })

	_, err := m.WaitAll(context.Background(), []AgentID{id1, id2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 agent(s) failed")
	assert.Contains(t, err.Error(), "boom")
}

func TestWaitAny(t *testing.T) {
	m := New()
	slow := m.Spawn("slow", "desc", func(ctx context.Context) (string, error) {
		time.Sleep(150 * time.Millisecond)
		return "slow-result", nil
	})
	fast := m.Spawn("fast", "desc", func(ctx context.Context) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return "fast-result", nil
	})

	winner, result, err := m.WaitAny(context.Background(), []AgentID{slow, fast})
	require.NoError(t, err)
	assert.Equal(t, fast, winner)
	assert.Equal(t, "fast-result", result)
}

func TestWaitAnyEmpty(t *testing.T) {
	m := New()
	_, _, err := m.WaitAny(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no agents provided")
}

func TestWaitFirstSuccess(t *testing.T) {
	m := New()
	id1 := m.Spawn("fail1", "desc", func(ctx context.Context) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return "", errors.New("error1")
	})
	id2 := m.Spawn("success", "desc", func(ctx context.Context) (string, error) {
		time.Sleep(15 * time.Millisecond)
		return "good-result", nil
	})

	result, err := m.WaitFirstSuccess(context.Background(), []AgentID{id1, id2})
	require.NoError(t, err)
	assert.Equal(t, "good-result", result)
}

func TestWaitFirstSuccessAllFail(t *testing.T) {
	m := New()
	id1 := m.Spawn("fail1", "desc", func(ctx context.Context) (string, error) { return "", errors.New("error1") })
	id2 := m.Spawn("fail2", "desc", func(ctx context.Context) (string, error) { return "", errors.New("error2") })

	_, err := m.WaitFirstSuccess(context.Background(), []AgentID{id1, id2})
	require.Error(t, err)
}

func TestUpdateProgressClampedTo100(t *testing.T) {
	m := New()
	id := m.Spawn("progress-agent", "desc", func(ctx context.Context) (string, error) {
		time.Sleep(30 * time.Millisecond)
		return "done", nil
	})

	require.NoError(t, m.UpdateProgress(id, 50))
	status, _ := m.GetStatus(id)
	assert.EqualValues(t, 50, status.Progress)

	require.NoError(t, m.UpdateProgress(id, 150))
	status, _ = m.GetStatus(id)
	assert.EqualValues(t, 100, status.Progress)

	_, _ = m.Wait(context.Background(), id)
}

func TestProgressReporter(t *testing.T) {
	m := New()
	id := m.SpawnWithProgress("reporter-agent", "desc", func(ctx context.Context, r ProgressReporter) (string, error) {
		r.Report(25)
		r.Report(50)
		r.Report(100)
		return "done", nil
	})

	time.Sleep(20 * time.Millisecond)
	processed := m.ProcessProgressUpdates()
	assert.Greater(t, processed, 0)

	status, _ := m.GetStatus(id)
	assert.Greater(t, status.Progress, uint8(0))

	_, _ = m.Wait(context.Background(), id)
}

func TestCancelAll(t *testing.T) {
	m := New()
	for i := 0; i < 3; i++ {
		m.Spawn("a", "desc", func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
	}
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 3, m.ActiveCount())

	m.CancelAll()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0, m.ActiveCount())
}

func TestCleanupCompleted(t *testing.T) {
	m := New()
	id1 := m.Spawn("a1", "desc", func(ctx context.Context) (string, error) { return "1", nil })
	_, _ = m.Wait(context.Background(), id1)

	id2 := m.Spawn("a2", "desc", func(ctx context.Context) (string, error) { return "2", nil })
	time.Sleep(10 * time.Millisecond)

	m.CleanupCompleted()
	assert.Empty(t, m.GetAllStatuses())
	_ = id2
}

func TestAggregateResults(t *testing.T) {
	m := New()
	id1 := m.Spawn("a1", "desc", func(ctx context.Context) (string, error) { return "apple", nil })
	id2 := m.Spawn("a2", "desc", func(ctx context.Context) (string, error) { return "banana", nil })

	result, err := m.AggregateResults(context.Background(), []AgentID{id1, id2}, "", func(acc, next string) string {
		if acc == "" {
			return next
		}
		return acc + ", " + next
	})
	require.NoError(t, err)
	assert.Equal(t, "apple, banana", result)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "queued", StateQueued.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
}
