// Package toolexec runs named tool handlers with categorized-error-aware
// retry and backoff, mirroring the retry policy the rest of the core relies
// on for transient tool failures.
package toolexec

import (
	"context"
	"log/slog"
	"time"

	"github.com/bazelment/selfheal/internal/toolerr"
)

// Func is a tool handler: given a JSON-ish input payload, it returns a
// result string or an error message.
type Func func(input any) (string, error)

// Config tunes retry behavior and auto-fix eligibility for an Executor.
type Config struct {
	MaxRetries        int
	BaseRetryDelay     time.Duration
	MaxRetryDelay      time.Duration
	AutoFixEnabled     bool
	ExecutionTimeout   time.Duration
	Logger             *slog.Logger
}

// DefaultConfig returns sensible out-of-the-box tuning defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       3,
		BaseRetryDelay:   time.Second,
		MaxRetryDelay:    10 * time.Second,
		AutoFixEnabled:   true,
		ExecutionTimeout: 5 * time.Minute,
	}
}

func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.BaseRetryDelay == 0 {
		c.BaseRetryDelay = d.BaseRetryDelay
	}
	if c.MaxRetryDelay == 0 {
		c.MaxRetryDelay = d.MaxRetryDelay
	}
	if c.ExecutionTimeout == 0 {
		c.ExecutionTimeout = d.ExecutionTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Result is the outcome of one Execute call, including how many retries it
// took to reach a terminal state.
type Result struct {
	ToolName string
	CallID   string
	Output   string
	Err      *toolerr.Error
	Duration time.Duration
	Retries  int
}

// IsSuccess reports whether the call completed without error.
func (r *Result) IsSuccess() bool { return r.Err == nil }

// IsAutoFixable reports whether the failure (if any) is auto-fixable.
func (r *Result) IsAutoFixable() bool { return r.Err != nil && r.Err.IsAutoFixable() }

// Error returns the underlying tool error, or nil on success.
func (r *Result) Error() *toolerr.Error { return r.Err }

// Executor dispatches calls to registered tool handlers.
type Executor struct {
	config Config
	tools  map[string]Func
}

// New builds an Executor with the given config, filling zero-value fields
// with the package defaults.
func New(config Config) *Executor {
	config.fillDefaults()
	return &Executor{config: config, tools: make(map[string]Func)}
}

// RegisterTool adds or replaces a named tool handler.
func (e *Executor) RegisterTool(name string, fn Func) {
	e.tools[name] = fn
}

// HasTool reports whether a handler is registered under name.
func (e *Executor) HasTool(name string) bool {
	_, ok := e.tools[name]
	return ok
}

// ToolNames returns every registered tool name.
func (e *Executor) ToolNames() []string {
	names := make([]string, 0, len(e.tools))
	for name := range e.tools {
		names = append(names, name)
	}
	return names
}

// Execute runs the named tool, retrying on retriable categorized errors up
// to config.MaxRetries times with exponential backoff, honoring ctx
// cancellation between attempts.
func (e *Executor) Execute(ctx context.Context, callID, toolName string, input any) Result {
	start := time.Now()
	handler, ok := e.tools[toolName]
	if !ok {
		err := toolerr.WithCategory(
			"Unknown tool: "+toolName,
			toolerr.ResourceCategory("tool_not_found"),
		)
		return Result{ToolName: toolName, CallID: callID, Err: err, Duration: time.Since(start)}
	}

	retries := 0
	for {
		output, err := handler(input)
		if err == nil {
			return Result{
				ToolName: toolName, CallID: callID, Output: output,
				Duration: time.Since(start), Retries: retries,
			}
		}

		toolErr := toolerr.New(err.Error()).WithRawOutput(err.Error())
		if toolErr.Retriable && retries < e.config.MaxRetries {
			retries++
			delay := calculateRetryDelay(retries, e.config.BaseRetryDelay, e.config.MaxRetryDelay)
			e.config.Logger.Debug("retrying tool call",
				"tool", toolName, "call_id", callID, "retry", retries, "delay", delay)
			select {
			case <-ctx.Done():
				return Result{
					ToolName: toolName, CallID: callID, Err: toolErr,
					Duration: time.Since(start), Retries: retries,
				}
			case <-time.After(delay):
			}
			continue
		}

		return Result{
			ToolName: toolName, CallID: callID, Err: toolErr,
			Duration: time.Since(start), Retries: retries,
		}
	}
}

// calculateRetryDelay computes base*2^(retryCount-1), capped at maxDelay.
func calculateRetryDelay(retryCount int, base, maxDelay time.Duration) time.Duration {
	delay := base
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
