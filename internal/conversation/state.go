package conversation

// AgentState is the current phase of the conversation loop. Each concrete
// type carries exactly the data that phase needs; there is no shared struct
// because the phases don't share much besides the conversation transcript.
type AgentState interface {
	// agentState is a marker method to prevent external implementations.
	agentState()
	// Name identifies the state for logging and tests.
	Name() string
}

// WaitingForUserInput is the idle state: the loop is parked until the caller
// supplies a UserInputEvent or requests shutdown.
type WaitingForUserInput struct {
	Conversation []Message
}

func (WaitingForUserInput) agentState()     {}
func (WaitingForUserInput) Name() string    { return "WaitingForUserInput" }

// CallingLLM means a request is in flight to the LLM. Retries counts prior
// failed attempts for the current turn.
type CallingLLM struct {
	Conversation []Message
	Retries      uint32
}

func (CallingLLM) agentState()  {}
func (CallingLLM) Name() string { return "CallingLlm" }

// ErrorState holds a failed LLM call awaiting its retry timer.
type ErrorState struct {
	Conversation []Message
	ErrorMessage string
	Retries      uint32
}

func (ErrorState) agentState()  {}
func (ErrorState) Name() string { return "Error" }

// ExecutingTools tracks one or more tool calls the LLM requested, waiting
// for each to report completion.
type ExecutingTools struct {
	Conversation []Message
	Executions   []ToolExecution
}

func (ExecutingTools) agentState()  {}
func (ExecutingTools) Name() string { return "ExecutingTools" }

// PostToolsHook holds tool results that have been computed but not yet
// folded back into the conversation, pending an external hook's verdict on
// whether the loop should proceed.
type PostToolsHook struct {
	Conversation       []Message
	PendingToolResults []Message
}

func (PostToolsHook) agentState()  {}
func (PostToolsHook) Name() string { return "PostToolsHook" }

// ShuttingDown is terminal: the machine accepts no further events.
type ShuttingDown struct{}

func (ShuttingDown) agentState()  {}
func (ShuttingDown) Name() string { return "ShuttingDown" }
