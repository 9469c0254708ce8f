package conversation

// AgentEvent is something that happened and needs the state machine to react:
// user input arrived, the LLM answered or failed, a tool finished, etc.
type AgentEvent interface {
	// agentEvent is a marker method to prevent external implementations.
	agentEvent()
}

// UserInputEvent carries text typed by the user.
type UserInputEvent struct {
	Text string
}

func (UserInputEvent) agentEvent() {}

// LLMCompletedEvent carries a successful LLM response.
type LLMCompletedEvent struct {
	Content    []ContentBlock
	StopReason string
}

func (LLMCompletedEvent) agentEvent() {}

// LLMErrorEvent reports that the in-flight LLM call failed.
type LLMErrorEvent struct {
	Message string
}

func (LLMErrorEvent) agentEvent() {}

// RetryTimeoutEvent fires once the retry delay a ScheduleRetryAction asked
// for has elapsed.
type RetryTimeoutEvent struct{}

func (RetryTimeoutEvent) agentEvent() {}

// ToolCompletedEvent reports that a single tool call finished.
type ToolCompletedEvent struct {
	CallID string
	Result ToolOutcome
}

func (ToolCompletedEvent) agentEvent() {}

// HooksCompletedEvent carries the verdict of post-tool hooks: whether the
// loop should proceed to the next LLM turn, and an optional warning to show
// the user either way.
type HooksCompletedEvent struct {
	Proceed bool
	Warning *string
}

func (HooksCompletedEvent) agentEvent() {}

// ShutdownRequestedEvent asks the machine to stop, from any state.
type ShutdownRequestedEvent struct{}

func (ShutdownRequestedEvent) agentEvent() {}
