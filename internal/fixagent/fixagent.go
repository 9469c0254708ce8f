// Package fixagent drives a bounded retry loop that turns a single
// auto-fixable tool failure into an applied patch, a passing verification,
// and an optional generated regression test.
package fixagent

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bazelment/selfheal/internal/diagnostics"
	"github.com/bazelment/selfheal/internal/fixapply"
	"github.com/bazelment/selfheal/internal/regtest"
	"github.com/bazelment/selfheal/internal/toolerr"
	"github.com/bazelment/selfheal/internal/toolexec"
)

var nextAgentID atomic.Uint64

// Status is the lifecycle state of a fix agent.
type Status int

const (
	StatusPending Status = iota
	StatusAnalyzing
	StatusApplying
	StatusVerifying
	StatusSuccess
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusAnalyzing:
		return "Analyzing"
	case StatusApplying:
		return "Applying"
	case StatusVerifying:
		return "Verifying"
	case StatusSuccess:
		return "Success"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Config tunes a fix agent's retry budget and behavior.
type Config struct {
	MaxAttempts          uint32
	GenerateTests        bool
	AttemptTimeout       time.Duration
	AllowMultiFileFixes  bool
	RegressionTestConfig regtest.Config
	Logger               *slog.Logger
}

// DefaultConfig returns the tuning defaults a fix agent ships with.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:          3,
		GenerateTests:        true,
		AttemptTimeout:       30 * time.Second,
		AllowMultiFileFixes:  true,
		RegressionTestConfig: regtest.DefaultConfig(),
	}
}

func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Attempt records the outcome of one apply-then-verify cycle.
type Attempt struct {
	AttemptNumber uint32
	Description   string
	ModifiedFiles []string
	Success       bool
	ErrorMessage  string
	Duration      time.Duration
}

// Result is the terminal outcome of a fix agent's run.
type Result struct {
	AgentID        uint64
	CorrelationID  string
	Status         Status
	Attempts       []Attempt
	OriginalError  string
	GeneratedTest  *regtest.Test
	TotalDuration  time.Duration
}

// IsSuccess reports whether the agent reached StatusSuccess.
func (r *Result) IsSuccess() bool { return r.Status == StatusSuccess }

// AttemptCount returns how many apply-verify cycles were run.
func (r *Result) AttemptCount() int { return len(r.Attempts) }

// LastAttempt returns the most recent attempt, or nil if none ran.
func (r *Result) LastAttempt() *Attempt {
	if len(r.Attempts) == 0 {
		return nil
	}
	return &r.Attempts[len(r.Attempts)-1]
}

// AllModifiedFiles returns the union of files touched across every attempt,
// in first-seen order.
func (r *Result) AllModifiedFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, a := range r.Attempts {
		for _, f := range a.ModifiedFiles {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files
}

// ApplyFunc applies one candidate fix and reports the files it touched.
type ApplyFunc func(fixType diagnostics.FixType, category toolerr.Category) ([]string, error)

// VerifyFunc re-runs whatever check the original tool failure came from.
type VerifyFunc func() error

// Agent runs a single auto-fixable failure through diagnosis, apply, and
// verify. An Agent is not safe for concurrent use — AttemptFix mutates its
// own state and is meant to be driven by one goroutine at a time, the same
// single-threaded contract the conversation state machine uses for a
// session's active agent.
type Agent struct {
	id              uint64
	config          Config
	status          Status
	err             *toolerr.Error
	executionResult toolexec.Result
	attempts        []Attempt
	createdAt       time.Time
	generatedTest   *regtest.Test
	statusCallback  func(Status)
	fixInfo         *diagnostics.FixInfo
	lastFixResult   *fixapply.Result
}

// Spawn creates a fix agent for result, or returns (nil, false) if result
// did not fail, or failed with a non-auto-fixable category.
func Spawn(result toolexec.Result, config Config) (*Agent, bool) {
	if result.Err == nil || !result.Err.IsAutoFixable() {
		return nil, false
	}
	config.fillDefaults()
	id := nextAgentID.Add(1)
	config.Logger.Info("fix agent spawned", "agent_id", id, "error_type", result.Err.Category.ErrorType)
	return &Agent{
		id:              id,
		config:          config,
		status:          StatusPending,
		err:             result.Err,
		executionResult: result,
		createdAt:       time.Now(),
	}, true
}

// SpawnWithDefaults spawns a fix agent using DefaultConfig.
func SpawnWithDefaults(result toolexec.Result) (*Agent, bool) {
	return Spawn(result, DefaultConfig())
}

// OnStatusChange registers a callback invoked every time the agent's status
// transitions.
func (a *Agent) OnStatusChange(callback func(Status)) *Agent {
	a.statusCallback = callback
	return a
}

func (a *Agent) setStatus(status Status) {
	a.status = status
	if a.statusCallback != nil {
		a.statusCallback(status)
	}
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() uint64 { return a.id }

// Status returns the agent's current lifecycle state.
func (a *Agent) Status() Status { return a.status }

// Error returns the originating tool error this agent was spawned for.
func (a *Agent) Error() *toolerr.Error { return a.err }

// ExecutionResult returns the tool execution result this agent was spawned
// from.
func (a *Agent) ExecutionResult() toolexec.Result { return a.executionResult }

// AttemptCount returns how many apply-verify cycles have run so far.
func (a *Agent) AttemptCount() int { return len(a.attempts) }

// HasAttemptsRemaining reports whether the agent can still try another
// apply-verify cycle.
func (a *Agent) HasAttemptsRemaining() bool {
	return uint32(len(a.attempts)) < a.config.MaxAttempts
}

// DeviationCategory classifies this agent's originating error for autonomy
// purposes.
func (a *Agent) DeviationCategory() DeviationCategory {
	return CategorizeDeviation(a.err.Message)
}

// DeviationRule returns the autonomy rule for this agent's deviation
// category.
func (a *Agent) DeviationRule() DeviationRule {
	return a.DeviationCategory().Rule()
}

// ShouldAttemptFix reports whether this agent is allowed to proceed
// automatically, combining the underlying error's auto-fixability with its
// deviation category.
func (a *Agent) ShouldAttemptFix() bool {
	return a.err.IsAutoFixable() && a.DeviationCategory().AllowsAutoFix()
}

// Diagnose returns a short fix-type label, a human description, and a
// suggested action for this agent's originating error.
func (a *Agent) Diagnose() (fixType, description, suggestedAction string) {
	if a.err.Category.Kind != toolerr.KindCode {
		return "not_code_error", "This error is not a code error", "Cannot auto-fix this type of error"
	}

	switch a.err.Category.ErrorType {
	case "missing_dependency":
		return "missing_dependency", "A required dependency is not declared", "Add the dependency to Cargo.toml or package.json"
	case "missing_import":
		return "missing_import", "A required module or item is not imported", "Add the missing import statement"
	case "type_error":
		return "type_error", "Type mismatch in the code", "Adjust types or add conversions"
	case "syntax_error":
		return "syntax_error", "Syntax error in the code", "Fix the syntax issue"
	default:
		return "unknown_code_error", "An unknown code error occurred", "Investigate and fix the issue"
	}
}

// AttemptFix runs the apply-verify loop until a verified success or an
// exhausted attempt budget. An apply error, or a multi-file fix while
// AllowMultiFileFixes is false, is recorded as a failed attempt without
// calling verify, and the loop goes on to the next attempt. apply is called to
// produce and write a candidate patch; verify is called to re-check whatever
// the original tool call was checking.
func (a *Agent) AttemptFix(apply ApplyFunc, verify VerifyFunc) *Result {
	start := time.Now()
	a.setStatus(StatusAnalyzing)

	fixTypeLabel, description, _ := a.Diagnose()
	info := a.buildFixInfo(fixTypeLabel)
	a.fixInfo = &info

	for a.HasAttemptsRemaining() {
		attemptStart := time.Now()
		attemptNumber := uint32(len(a.attempts)) + 1

		a.setStatus(StatusApplying)
		modifiedFiles, applyErr := apply(info.FixType, a.err.Category)

		if applyErr == nil && !a.config.AllowMultiFileFixes && len(distinctFiles(modifiedFiles)) > 1 {
			applyErr = fmt.Errorf("fix touched %d files but multi-file fixes are disabled", len(distinctFiles(modifiedFiles)))
		}

		if applyErr != nil {
			a.config.Logger.Warn("fix attempt failed to apply", "agent_id", a.id, "attempt", attemptNumber, "error", applyErr)
			a.attempts = append(a.attempts, Attempt{
				AttemptNumber: attemptNumber,
				Description:   description,
				Success:       false,
				ErrorMessage:  fmt.Sprintf("Failed to apply fix: %v", applyErr),
				Duration:      time.Since(attemptStart),
			})
			continue
		}

		a.lastFixResult = &fixapply.Result{Success: true, ModifiedFiles: modifiedFiles, Description: description}

		a.setStatus(StatusVerifying)
		verifyErr := verify()
		if verifyErr == nil {
			a.attempts = append(a.attempts, Attempt{
				AttemptNumber: attemptNumber,
				Description:   description,
				ModifiedFiles: modifiedFiles,
				Success:       true,
				Duration:      time.Since(attemptStart),
			})
			a.setStatus(StatusSuccess)
			a.config.Logger.Info("fix verified", "agent_id", a.id, "attempt", attemptNumber)
			if a.config.GenerateTests {
				a.generatedTest = a.generateRegressionTest()
			}
			return a.buildResult(time.Since(start))
		}

		a.config.Logger.Warn("fix attempt failed verification", "agent_id", a.id, "attempt", attemptNumber, "error", verifyErr)
		a.attempts = append(a.attempts, Attempt{
			AttemptNumber: attemptNumber,
			Description:   description,
			ModifiedFiles: modifiedFiles,
			Success:       false,
			ErrorMessage:  fmt.Sprintf("Verification failed: %v", verifyErr),
			Duration:      time.Since(attemptStart),
		})
	}

	a.setStatus(StatusFailed)
	return a.buildResult(time.Since(start))
}

// Cancel stops the agent in place and returns its result as-is.
func (a *Agent) Cancel() *Result {
	a.setStatus(StatusCancelled)
	return a.buildResult(time.Since(a.createdAt))
}

func (a *Agent) buildFixInfo(fixTypeLabel string) diagnostics.FixInfo {
	var fixType diagnostics.FixType
	switch fixTypeLabel {
	case "missing_dependency":
		fixType = diagnostics.FixAddDependency
	case "missing_import":
		fixType = diagnostics.FixAddImport
	case "type_error":
		fixType = diagnostics.FixFixType
	default:
		fixType = diagnostics.FixSyntax
	}

	var targetFile, targetItem string
	if a.err.Category.Kind == toolerr.KindCode {
		switch a.err.Category.ErrorType {
		case "missing_dependency":
			targetFile = "Cargo.toml"
			targetItem = extractCrateNameFromError(a.err.Message)
		case "missing_import":
			targetFile = extractFileFromError(a.err.Message)
			targetItem = extractItemNameFromError(a.err.Message)
		default:
			targetFile = extractFileFromError(a.err.Message)
		}
	}

	return diagnostics.FixInfo{
		FixType:         fixType,
		TargetFile:      targetFile,
		TargetItem:      targetItem,
		SuggestedChange: a.err.SuggestedFix,
	}
}

func (a *Agent) generateRegressionTest() *regtest.Test {
	if a.fixInfo == nil || a.lastFixResult == nil {
		return nil
	}
	test, ok := regtest.Generate(*a.fixInfo, a.lastFixResult, a.config.RegressionTestConfig)
	if !ok {
		return nil
	}
	return &test
}

func (a *Agent) buildResult(totalDuration time.Duration) *Result {
	return &Result{
		AgentID:       a.id,
		CorrelationID: uuid.NewString(),
		Status:        a.status,
		Attempts:      append([]Attempt(nil), a.attempts...),
		OriginalError: a.err.Message,
		GeneratedTest: a.generatedTest,
		TotalDuration: totalDuration,
	}
}

func distinctFiles(files []string) []string {
	seen := make(map[string]bool, len(files))
	var out []string
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
