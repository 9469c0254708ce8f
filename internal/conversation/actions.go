package conversation

import "time"

// AgentAction is what the caller of HandleEvent must do in response to a
// transition: call the LLM, run tools, print something, wait. The state
// machine never performs these side effects itself.
type AgentAction interface {
	// agentAction is a marker method to prevent external implementations.
	agentAction()
}

// SendLLMRequestAction asks the caller to issue an LLM call with the given
// transcript.
type SendLLMRequestAction struct {
	Messages []Message
}

func (SendLLMRequestAction) agentAction() {}

// DisplayTextAction asks the caller to show text to the user.
type DisplayTextAction struct {
	Text string
}

func (DisplayTextAction) agentAction() {}

// DisplayErrorAction asks the caller to show an error to the user.
type DisplayErrorAction struct {
	Message string
}

func (DisplayErrorAction) agentAction() {}

// DisplayWarningAction asks the caller to show a non-fatal warning.
type DisplayWarningAction struct {
	Message string
}

func (DisplayWarningAction) agentAction() {}

// ScheduleRetryAction asks the caller to deliver a RetryTimeoutEvent after
// Delay has elapsed.
type ScheduleRetryAction struct {
	Delay time.Duration
}

func (ScheduleRetryAction) agentAction() {}

// ExecuteToolsAction asks the caller to run the given tool calls, each
// eventually reported back via a ToolCompletedEvent.
type ExecuteToolsAction struct {
	Calls []ToolCall
}

func (ExecuteToolsAction) agentAction() {}

// RunPostToolsHooksAction asks the caller to run any post-tool hooks for the
// named tools, reporting the verdict via a HooksCompletedEvent.
type RunPostToolsHooksAction struct {
	ToolNames []string
}

func (RunPostToolsHooksAction) agentAction() {}

// PromptForInputAction asks the caller to prompt the user for their next
// message.
type PromptForInputAction struct{}

func (PromptForInputAction) agentAction() {}

// WaitForEventAction means nothing to do yet; the caller should keep waiting
// for the next event.
type WaitForEventAction struct{}

func (WaitForEventAction) agentAction() {}

// ShutdownAction asks the caller to tear the loop down.
type ShutdownAction struct{}

func (ShutdownAction) agentAction() {}
