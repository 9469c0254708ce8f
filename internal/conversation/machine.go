package conversation

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MaxRetries is how many times a failed LLM call is retried before the loop
// gives up and hands control back to the user.
const MaxRetries = 3

// RetryDelay is the base backoff between LLM retries. The actual delay
// scales linearly with the retry count: RetryDelay * (retries + 1).
const RetryDelay = time.Second

// StateMachine drives the conversation loop. It is not safe for concurrent
// use; callers own serializing event delivery.
type StateMachine struct {
	state   AgentState
	verbose bool
	logger  *slog.Logger
}

// New creates a state machine starting in WaitingForUserInput.
func New() *StateMachine {
	return &StateMachine{
		state:  WaitingForUserInput{},
		logger: slog.Default(),
	}
}

// WithVerbose enables per-transition logging.
func (m *StateMachine) WithVerbose(verbose bool) *StateMachine {
	m.verbose = verbose
	return m
}

// WithLogger overrides the default logger.
func (m *StateMachine) WithLogger(logger *slog.Logger) *StateMachine {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithState forces the starting state. Primarily useful in tests that need
// to exercise a transition without replaying every event that leads to it.
func (m *StateMachine) WithState(state AgentState) *StateMachine {
	m.state = state
	return m
}

// State returns the current state.
func (m *StateMachine) State() AgentState {
	return m.state
}

// HandleEvent processes an event and returns the action the caller must
// perform in response.
func (m *StateMachine) HandleEvent(event AgentEvent) AgentAction {
	oldName := m.state.Name()

	action := m.transition(event)

	if m.verbose {
		m.logger.Debug("state transition", "from", oldName, "to", m.state.Name())
	}

	return action
}

func (m *StateMachine) transition(event AgentEvent) AgentAction {
	if _, ok := event.(ShutdownRequestedEvent); ok {
		m.state = ShuttingDown{}
		return ShutdownAction{}
	}

	switch st := m.state.(type) {
	case WaitingForUserInput:
		if ev, ok := event.(UserInputEvent); ok {
			conv := appendMessage(st.Conversation, NewUserMessage(ev.Text))
			m.state = CallingLLM{Conversation: conv, Retries: 0}
			return SendLLMRequestAction{Messages: conv}
		}

	case CallingLLM:
		switch ev := event.(type) {
		case LLMCompletedEvent:
			return m.processLLMResponse(st.Conversation, ev.Content)

		case LLMErrorEvent:
			if st.Retries < MaxRetries {
				m.state = ErrorState{
					Conversation: st.Conversation,
					ErrorMessage: ev.Message,
					Retries:      st.Retries,
				}
				return ScheduleRetryAction{Delay: RetryDelay * time.Duration(st.Retries+1)}
			}

			m.state = WaitingForUserInput{Conversation: st.Conversation}
			return DisplayErrorAction{
				Message: fmt.Sprintf("LLM request failed after %d retries: %s", MaxRetries, ev.Message),
			}
		}

	case ErrorState:
		if _, ok := event.(RetryTimeoutEvent); ok {
			m.state = CallingLLM{Conversation: st.Conversation, Retries: st.Retries + 1}
			return SendLLMRequestAction{Messages: st.Conversation}
		}

	case ExecutingTools:
		if ev, ok := event.(ToolCompletedEvent); ok {
			return m.handleToolCompleted(st, ev)
		}

	case PostToolsHook:
		if ev, ok := event.(HooksCompletedEvent); ok {
			return m.handleHooksCompleted(st, ev)
		}
	}

	if m.verbose {
		m.logger.Warn("invalid transition", "event", fmt.Sprintf("%T", event), "state", m.state.Name())
	}
	return WaitForEventAction{}
}

// processLLMResponse splits a completed LLM turn's content into display text
// and requested tool calls, and decides whether the loop needs to run tools
// or go back to waiting on the user. The content and conversation are passed
// in directly rather than staged through an intermediate state value, since
// this helper is only ever called once, synchronously, from the CallingLLM
// transition.
func (m *StateMachine) processLLMResponse(conversation []Message, content []ContentBlock) AgentAction {
	var textParts []string
	var toolCalls []ToolCall

	for _, block := range content {
		switch b := block.(type) {
		case TextBlock:
			textParts = append(textParts, b.Text)
		case ToolUseBlock:
			toolCalls = append(toolCalls, ToolCall{CallID: b.ID, ToolName: b.Name, Input: b.Input})
		}
	}

	conv := appendMessage(conversation, NewAssistantMessage(content))

	if len(toolCalls) > 0 {
		executions := make([]ToolExecution, len(toolCalls))
		for i, tc := range toolCalls {
			executions[i] = ToolExecution{
				CallID:   tc.CallID,
				ToolName: tc.ToolName,
				Input:    tc.Input,
				Phase:    ToolPending,
			}
		}

		m.state = ExecutingTools{Conversation: conv, Executions: executions}
		return ExecuteToolsAction{Calls: toolCalls}
	}

	m.state = WaitingForUserInput{Conversation: conv}

	displayText := strings.Join(textParts, "")
	if displayText != "" {
		return DisplayTextAction{Text: displayText}
	}
	return PromptForInputAction{}
}

func (m *StateMachine) handleToolCompleted(st ExecutingTools, ev ToolCompletedEvent) AgentAction {
	execs := make([]ToolExecution, len(st.Executions))
	copy(execs, st.Executions)

	for i := range execs {
		if execs[i].CallID == ev.CallID && execs[i].Phase != ToolDone {
			result := ev.Result
			execs[i].Phase = ToolDone
			execs[i].Result = &result
			break
		}
	}

	allDone := true
	for _, e := range execs {
		if e.Phase != ToolDone {
			allDone = false
			break
		}
	}

	if !allDone {
		m.state = ExecutingTools{Conversation: st.Conversation, Executions: execs}
		return WaitForEventAction{}
	}

	toolResultMessages := make([]Message, 0, len(execs))
	for _, e := range execs {
		if e.Result.IsError {
			toolResultMessages = append(toolResultMessages, NewToolResultErrorMessage(e.CallID, "Error: "+e.Result.Err))
		} else {
			toolResultMessages = append(toolResultMessages, NewToolResultMessage(e.CallID, e.Result.Output))
		}
	}

	// Tool names for the hook decision come from the pre-update execution
	// list so a tool that only just completed this call is still counted.
	var toolNames []string
	for _, e := range st.Executions {
		if e.Phase != ToolDone {
			toolNames = append(toolNames, e.ToolName)
		}
	}

	m.state = PostToolsHook{Conversation: st.Conversation, PendingToolResults: toolResultMessages}
	return RunPostToolsHooksAction{ToolNames: toolNames}
}

func (m *StateMachine) handleHooksCompleted(st PostToolsHook, ev HooksCompletedEvent) AgentAction {
	if ev.Proceed {
		conv := append(append([]Message(nil), st.Conversation...), st.PendingToolResults...)
		m.state = CallingLLM{Conversation: conv, Retries: 0}

		if ev.Warning != nil {
			return DisplayWarningAction{Message: *ev.Warning}
		}
		return SendLLMRequestAction{Messages: conv}
	}

	m.state = WaitingForUserInput{Conversation: st.Conversation}

	if ev.Warning != nil {
		return DisplayWarningAction{Message: *ev.Warning}
	}
	return PromptForInputAction{}
}

func appendMessage(conversation []Message, msg Message) []Message {
	conv := make([]Message, len(conversation), len(conversation)+1)
	copy(conv, conversation)
	return append(conv, msg)
}
