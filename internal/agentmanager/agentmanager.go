// Package agentmanager spawns, tracks, and cancels background agent tasks
// running concurrently as goroutines, with progress reporting and
// aggregate-wait helpers for fan-out/fan-in patterns.
package agentmanager

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// AgentID uniquely identifies a spawned agent within one Manager.
type AgentID uint64

// State is the lifecycle state of a managed agent.
type State int

const (
	StateQueued State = iota
	StateRunning
	StateComplete
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s is a state an agent will not leave.
func (s State) IsTerminal() bool {
	return s == StateComplete || s == StateFailed || s == StateCancelled
}

// Status is a point-in-time snapshot of a managed agent.
type Status struct {
	ID          AgentID
	Name        string
	Description string
	State       State
	Progress    uint8
}

// ProgressReporter lets a running task report its own progress back to the
// manager without holding a reference to the manager itself.
type ProgressReporter struct {
	id AgentID
	ch chan<- progressUpdate
}

// Report publishes a progress value in [0, 100], clamping above 100.
func (p ProgressReporter) Report(progress uint8) {
	p.ReportWithDescription(progress, "")
}

// ReportWithDescription publishes a progress value and a description update.
// description is currently advisory only and not surfaced through Status.
func (p ProgressReporter) ReportWithDescription(progress uint8, description string) {
	if progress > 100 {
		progress = 100
	}
	select {
	case p.ch <- progressUpdate{id: p.id, progress: progress}:
	default:
		// Buffered best-effort: a stalled consumer should not block the
		// producing goroutine.
	}
}

type progressUpdate struct {
	id       AgentID
	progress uint8
}

// Task is a unit of work a spawned agent runs. It receives a context it
// should honor for cancellation and a reporter it may use to publish
// progress.
type Task func(ctx context.Context, reporter ProgressReporter) (string, error)

type managedAgent struct {
	mu       sync.Mutex
	status   Status
	cancel   context.CancelFunc
	done     chan struct{}
	result   string
	err      error
}

func (m *managedAgent) snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *managedAgent) setState(state State) {
	m.mu.Lock()
	m.status.State = state
	m.mu.Unlock()
}

func (m *managedAgent) setProgress(progress uint8) {
	m.mu.Lock()
	if progress > 100 {
		progress = 100
	}
	m.status.Progress = progress
	m.mu.Unlock()
}

// Manager owns a set of concurrently running agent tasks.
type Manager struct {
	mu         sync.Mutex
	agents     map[AgentID]*managedAgent
	nextID     atomic.Uint64
	progressCh chan progressUpdate
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		agents:     make(map[AgentID]*managedAgent),
		progressCh: make(chan progressUpdate, 256),
	}
}

// Spawn starts task as a background goroutine and returns its AgentID
// immediately; the task does not receive a ProgressReporter.
func (m *Manager) Spawn(name, description string, task func(ctx context.Context) (string, error)) AgentID {
	return m.SpawnWithProgress(name, description, func(ctx context.Context, _ ProgressReporter) (string, error) {
		return task(ctx)
	})
}

// SpawnWithProgress starts task as a background goroutine, giving it a
// ProgressReporter it may use to publish incremental progress.
func (m *Manager) SpawnWithProgress(name, description string, task Task) AgentID {
	id := AgentID(m.nextID.Add(1))
	ctx, cancel := context.WithCancel(context.Background())

	agent := &managedAgent{
		status: Status{ID: id, Name: name, Description: description, State: StateQueued},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.agents[id] = agent
	m.mu.Unlock()

	reporter := ProgressReporter{id: id, ch: m.progressCh}

	go func() {
		defer close(agent.done)
		agent.setState(StateRunning)

		result, err := task(ctx, reporter)

		select {
		case <-ctx.Done():
			agent.mu.Lock()
			agent.err = fmt.Errorf("agent cancelled")
			agent.status.State = StateCancelled
			agent.mu.Unlock()
			return
		default:
		}

		agent.mu.Lock()
		if err != nil {
			agent.err = err
			agent.status.State = StateFailed
		} else {
			agent.result = result
			agent.status.State = StateComplete
			agent.status.Progress = 100
		}
		agent.mu.Unlock()
	}()

	return id
}

// UpdateProgress sets an agent's reported progress directly, clamped to 100.
func (m *Manager) UpdateProgress(id AgentID, progress uint8) error {
	agent, ok := m.lookup(id)
	if !ok {
		return fmt.Errorf("agent %d not found", id)
	}
	agent.setProgress(progress)
	return nil
}

// Cancel requests that a running agent's context be cancelled. A no-op if
// the agent has already reached a terminal state.
func (m *Manager) Cancel(id AgentID) error {
	agent, ok := m.lookup(id)
	if !ok {
		return fmt.Errorf("agent %d not found", id)
	}
	agent.mu.Lock()
	if agent.status.State.IsTerminal() {
		agent.mu.Unlock()
		return nil
	}
	agent.status.State = StateCancelled
	agent.mu.Unlock()
	agent.cancel()
	return nil
}

// CancelAll requests cancellation of every currently tracked agent,
// ignoring individual errors.
func (m *Manager) CancelAll() {
	for _, id := range m.ids() {
		_ = m.Cancel(id)
	}
}

// GetStatus returns a snapshot of one agent's status.
func (m *Manager) GetStatus(id AgentID) (Status, bool) {
	agent, ok := m.lookup(id)
	if !ok {
		return Status{}, false
	}
	return agent.snapshot(), true
}

// GetAllStatuses returns a snapshot of every currently tracked agent.
func (m *Manager) GetAllStatuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	statuses := make([]Status, 0, len(m.agents))
	for _, agent := range m.agents {
		statuses = append(statuses, agent.snapshot())
	}
	return statuses
}

// IsComplete reports whether id has reached a terminal state.
func (m *Manager) IsComplete(id AgentID) bool {
	agent, ok := m.lookup(id)
	if !ok {
		return false
	}
	return agent.snapshot().State.IsTerminal()
}

// ActiveCount returns how many tracked agents are not yet in a terminal
// state.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, agent := range m.agents {
		if !agent.snapshot().State.IsTerminal() {
			count++
		}
	}
	return count
}

// CleanupCompleted removes every tracked agent that has reached a terminal
// state, without requiring a Wait call first.
func (m *Manager) CleanupCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, agent := range m.agents {
		if agent.snapshot().State.IsTerminal() {
			delete(m.agents, id)
		}
	}
}

// ProcessProgressUpdates drains any pending progress reports and applies
// them, returning how many were processed. Call this periodically from a
// polling loop; SpawnWithProgress tasks publish through the same manager, so
// updates accumulate until drained.
func (m *Manager) ProcessProgressUpdates() int {
	count := 0
	for {
		select {
		case update := <-m.progressCh:
			if agent, ok := m.lookup(update.id); ok {
				agent.setProgress(update.progress)
				count++
			}
		default:
			return count
		}
	}
}

// Wait removes id from the manager, then blocks until its task finishes and
// returns its result. If ctx ends first, ctx's error is returned and the
// agent stays removed.
func (m *Manager) Wait(ctx context.Context, id AgentID) (string, error) {
	agent, ok := m.take(id)
	if !ok {
		return "", fmt.Errorf("agent %d not found", id)
	}

	select {
	case <-agent.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	agent.mu.Lock()
	defer agent.mu.Unlock()
	if agent.err != nil {
		return "", agent.err
	}
	return agent.result, nil
}

// WaitAll waits for every id in order, returning results in the same order.
// If any agent fails, it returns a combined error naming every failure.
func (m *Manager) WaitAll(ctx context.Context, ids []AgentID) ([]string, error) {
	results := make([]string, 0, len(ids))
	var failures []string

	for _, id := range ids {
		result, err := m.Wait(ctx, id)
		if err != nil {
			failures = append(failures, fmt.Sprintf("agent %d: %v", id, err))
			continue
		}
		results = append(results, result)
	}

	if len(failures) > 0 {
		return nil, fmt.Errorf("%d agent(s) failed:\n%s", len(failures), strings.Join(failures, "\n"))
	}
	return results, nil
}

// WaitAllParallel waits for every id concurrently, preserving input order in
// the returned slice, as WaitAll does; WaitAll waits on each id in turn.
func (m *Manager) WaitAllParallel(ctx context.Context, ids []AgentID) ([]string, error) {
	results := make([]string, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id AgentID) {
			defer wg.Done()
			result, err := m.Wait(ctx, id)
			results[i] = result
			errs[i] = err
		}(i, id)
	}
	wg.Wait()

	var failures []string
	for i, err := range errs {
		if err != nil {
			failures = append(failures, fmt.Sprintf("agent #%d: %v", i, err))
		}
	}
	if len(failures) > 0 {
		return nil, fmt.Errorf("%d agent(s) failed:\n%s", len(failures), strings.Join(failures, "\n"))
	}
	return results, nil
}

// WaitAny returns the ID and result of whichever agent in ids finishes
// first.
func (m *Manager) WaitAny(ctx context.Context, ids []AgentID) (AgentID, string, error) {
	if len(ids) == 0 {
		return 0, "", fmt.Errorf("no agents provided")
	}

	type outcome struct {
		id     AgentID
		result string
		err    error
	}
	ch := make(chan outcome, len(ids))
	for _, id := range ids {
		go func(id AgentID) {
			result, err := m.Wait(ctx, id)
			ch <- outcome{id: id, result: result, err: err}
		}(id)
	}

	first := <-ch
	if first.err != nil {
		return first.id, "", fmt.Errorf("agent %d: %w", first.id, first.err)
	}
	return first.id, first.result, nil
}

// WaitFirstSuccess waits on every id concurrently and returns the first
// successful result in completion order without waiting for the rest; if
// every agent failed, returns the last error observed.
func (m *Manager) WaitFirstSuccess(ctx context.Context, ids []AgentID) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("no agents provided")
	}

	type outcome struct {
		result string
		err    error
	}
	ch := make(chan outcome, len(ids))
	for _, id := range ids {
		go func(id AgentID) {
			result, err := m.Wait(ctx, id)
			ch <- outcome{result: result, err: err}
		}(id)
	}

	var lastErr error
	for range ids {
		o := <-ch
		if o.err == nil {
			return o.result, nil
		}
		lastErr = o.err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all agents failed")
	}
	return "", lastErr
}

// AggregateResults waits for every id and folds the results through
// combiner, starting from initial.
func (m *Manager) AggregateResults(ctx context.Context, ids []AgentID, initial string, combiner func(acc, next string) string) (string, error) {
	results, err := m.WaitAll(ctx, ids)
	if err != nil {
		return "", err
	}
	acc := initial
	for _, r := range results {
		acc = combiner(acc, r)
	}
	return acc, nil
}

func (m *Manager) lookup(id AgentID) (*managedAgent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agent, ok := m.agents[id]
	return agent, ok
}

func (m *Manager) take(id AgentID) (*managedAgent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agent, ok := m.agents[id]
	if ok {
		delete(m.agents, id)
	}
	return agent, ok
}

func (m *Manager) ids() []AgentID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]AgentID, 0, len(m.agents))
	for id := range m.agents {
		ids = append(ids, id)
	}
	return ids
}
