package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redcell/swarm/internal/sessions"
	"github.com/redcell/swarm/internal/tools/policy"
	"github.com/redcell/swarm/pkg/models"
)

// AgentConfig configures an Agent's tool loop behavior: iteration limits,
// token budgets, and tool execution settings.
type AgentConfig struct {
	// MaxIterations limits the number of tool-use round trips within a single
	// turn before the loop gives up and reports ErrMaxIterations.
	// Default: 10
	MaxIterations int

	// MaxTokens is the default max tokens for LLM completions.
	// Default: 4096
	MaxTokens int

	// MaxToolCalls limits the total tool calls across a turn (0 = unlimited).
	MaxToolCalls int

	// MaxWallTime limits total turn duration (0 = no limit).
	MaxWallTime time.Duration

	// ExecutorConfig configures the parallel tool executor.
	ExecutorConfig *ExecutorConfig

	// EnableBackpressure enables the executor's concurrency semaphore.
	// Default: true
	EnableBackpressure bool

	// StreamToolResults streams tool results as they complete.
	// Default: true
	StreamToolResults bool

	// DisableToolEvents disables streaming ToolEvent chunks.
	DisableToolEvents bool

	// ToolResultGuard redacts tool results before persistence.
	ToolResultGuard ToolResultGuard

	// ToolEvents persists tool call/result events when set.
	ToolEvents ToolEventStore
}

// DefaultAgentConfig returns the default agent configuration.
func DefaultAgentConfig() *AgentConfig {
	return &AgentConfig{
		MaxIterations:      10,
		MaxTokens:          4096,
		MaxToolCalls:       0,
		MaxWallTime:        0,
		ExecutorConfig:     DefaultExecutorConfig(),
		EnableBackpressure: true,
		StreamToolResults:  true,
	}
}

func sanitizeAgentConfig(config *AgentConfig) *AgentConfig {
	if config == nil {
		return DefaultAgentConfig()
	}
	cfg := *config
	defaults := DefaultAgentConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.ExecutorConfig == nil {
		cfg.ExecutorConfig = defaults.ExecutorConfig
	}
	if cfg.MaxToolCalls < 0 {
		cfg.MaxToolCalls = 0
	}
	if cfg.MaxWallTime < 0 {
		cfg.MaxWallTime = 0
	}
	return &cfg
}

// Agent is the reactive loop at the center of a swarm member: given the
// thread's message history and its system prompt, it calls the LLM; if the
// LLM emits tool calls, each is executed and its ToolResult appended, and
// the loop repeats. Once the LLM responds without tool calls, that text is
// the turn's final answer (or, during a handoff, a signal for the swarm
// router to switch the current agent and re-enter the loop).
//
//	┌─────────┐     ┌──────────┐     ┌───────────────────┐
//	│  Init   │────▶│  Stream  │────▶│  Execute Tools    │
//	└─────────┘     └──────────┘     └───────────────────┘
//	                      │                    │
//	                      ▼                    │
//	               ┌──────────┐                │
//	               │ Complete │◀───────────────┘ (no tool calls)
//	               └──────────┘
//	               ┌──────────┐
//	               │ Continue │◀──── (has tool results) ────┐
//	               └──────────┘                              │
//	                      └──────────────▶ Stream ───────────┘
type Agent struct {
	provider LLMProvider
	executor *Executor
	sessions sessions.Store
	config   *AgentConfig

	defaultModel  string
	defaultSystem string
}

// NewAgent creates an Agent bound to the given provider, tool registry, and
// thread store. If config is nil, DefaultAgentConfig is used.
func NewAgent(provider LLMProvider, registry *ToolRegistry, store sessions.Store, config *AgentConfig) *Agent {
	config = sanitizeAgentConfig(config)
	if registry == nil {
		registry = NewToolRegistry()
	}

	executor := NewExecutor(registry, config.ExecutorConfig)
	if !config.EnableBackpressure {
		executor.sem = nil
	}

	return &Agent{
		provider: provider,
		executor: executor,
		sessions: store,
		config:   config,
	}
}

// SetDefaultModel sets the model used when requests do not specify one.
func (a *Agent) SetDefaultModel(model string) {
	a.defaultModel = model
}

// SetDefaultSystem sets the system prompt used when requests do not specify one.
func (a *Agent) SetDefaultSystem(system string) {
	a.defaultSystem = system
}

// ConfigureTool sets per-tool overrides for timeout, retry, and priority.
func (a *Agent) ConfigureTool(name string, config *ToolConfig) {
	a.executor.ConfigureTool(name, config)
}

// Registry exposes the agent's tool registry, primarily so the swarm router
// can install handoff tools after construction.
func (a *Agent) Registry() *ToolRegistry {
	return a.executor.registry
}

// AgentState tracks the state of a single turn: phase, iteration count,
// accumulated messages, and pending tool operations.
type AgentState struct {
	Phase           LoopPhase
	Iteration       int
	TotalToolCalls  int
	Messages        []CompletionMessage
	PendingTools    []models.ToolCall
	ToolResults     []models.ToolResult
	AccumulatedText string
	LastError       error
	AssistantMsgID  string
}

// Run executes the agent's tool loop for one turn and streams results
// through the returned channel. The channel is closed when the turn
// completes or an error occurs.
func (a *Agent) Run(ctx context.Context, session *models.Session, msg *models.Message) (<-chan *ResponseChunk, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}
	if a.config == nil {
		return nil, errors.New("agent config is nil")
	}
	if session == nil {
		return nil, errors.New("session is nil")
	}
	if msg == nil {
		return nil, errors.New("message is nil")
	}
	if a.sessions == nil {
		return nil, errors.New("no session store configured")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if a.config.MaxWallTime > 0 {
		runCtx, cancel = context.WithTimeout(ctx, a.config.MaxWallTime)
	}
	runCtx = WithSession(runCtx, session)

	chunks := make(chan *ResponseChunk, processBufferSize)

	go func() {
		defer close(chunks)
		if cancel != nil {
			defer cancel()
		}

		state := &AgentState{
			Phase:     PhaseInit,
			Iteration: 0,
		}

		if err := a.initializeState(runCtx, session, msg, state); err != nil {
			chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseInit, Iteration: 0, Cause: err}}
			return
		}

		if err := a.persistInboundMessage(runCtx, session, msg); err != nil {
			chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseInit, Iteration: 0, Cause: err}}
			return
		}

		for state.Iteration < a.config.MaxIterations {
			select {
			case <-runCtx.Done():
				chunks <- &ResponseChunk{Error: &LoopError{Phase: state.Phase, Iteration: state.Iteration, Cause: runCtx.Err()}}
				return
			default:
			}

			state.Phase = PhaseStream
			toolCalls, err := a.streamPhase(runCtx, state, chunks)
			if err != nil {
				chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseStream, Iteration: state.Iteration, Cause: err}}
				return
			}

			if a.config.MaxToolCalls > 0 && state.TotalToolCalls+len(toolCalls) > a.config.MaxToolCalls {
				chunks <- &ResponseChunk{Error: &LoopError{
					Phase:     PhaseStream,
					Iteration: state.Iteration,
					Cause:     fmt.Errorf("tool calls exceed maximum of %d for turn", a.config.MaxToolCalls),
				}}
				return
			}
			state.TotalToolCalls += len(toolCalls)

			assistantMsgID, err := a.persistAssistantMessage(runCtx, session, state, toolCalls)
			if err != nil {
				chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseStream, Iteration: state.Iteration, Cause: err}}
				return
			}
			state.AssistantMsgID = assistantMsgID
			a.persistToolCalls(runCtx, session, assistantMsgID, toolCalls)

			if len(toolCalls) == 0 {
				a.addAssistantMessage(state, toolCalls)
				state.AccumulatedText = ""
				state.Phase = PhaseComplete
				return
			}

			state.Phase = PhaseExecuteTools
			state.PendingTools = toolCalls

			toolResults, err := a.executeToolsPhase(runCtx, session, state, chunks)
			if err != nil {
				chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseExecuteTools, Iteration: state.Iteration, Cause: err}}
				return
			}

			if err := a.persistToolMessage(runCtx, session, toolCalls, toolResults); err != nil {
				chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseExecuteTools, Iteration: state.Iteration, Cause: err}}
				return
			}

			state.Phase = PhaseContinue
			a.continuePhase(state, toolCalls, toolResults)

			// A handoff tool result ends the turn immediately: the swarm
			// router reads it from the chunk stream and re-enters Run with
			// the target agent rather than letting this loop continue.
			if handoffResultPresent(toolCalls, toolResults) {
				state.Phase = PhaseComplete
				return
			}

			state.Iteration++
		}

		chunks <- &ResponseChunk{Error: &LoopError{
			Phase:     state.Phase,
			Iteration: state.Iteration,
			Cause:     ErrMaxIterations,
			Message:   fmt.Sprintf("reached max iterations: %d", a.config.MaxIterations),
		}}
	}()

	return chunks, nil
}

func handoffResultPresent(calls []models.ToolCall, results []models.ToolResult) bool {
	for _, tc := range calls {
		if IsHandoffToolName(tc.Name) {
			return true
		}
	}
	_ = results
	return false
}

// initializeState loads conversation history and builds the completion
// message sequence for this turn.
func (a *Agent) initializeState(ctx context.Context, session *models.Session, msg *models.Message, state *AgentState) error {
	history, err := a.sessions.GetHistory(ctx, session.ID, 50)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	history = repairTranscript(history)

	state.Messages = make([]CompletionMessage, 0, len(history)+1)
	for _, m := range history {
		state.Messages = append(state.Messages, CompletionMessage{
			Role:        string(m.Role),
			Content:     m.Content,
			ToolCalls:   m.ToolCalls,
			ToolResults: m.ToolResults,
		})
	}

	role := msg.Role
	if role == "" {
		role = models.RoleUser
	}
	state.Messages = append(state.Messages, CompletionMessage{
		Role:    string(role),
		Content: msg.Content,
	})
	return nil
}

// streamPhase streams from the LLM and collects any tool calls.
func (a *Agent) streamPhase(ctx context.Context, state *AgentState, chunks chan<- *ResponseChunk) ([]models.ToolCall, error) {
	tools := a.executor.registry.AsLLMTools()
	if resolver, toolPolicy, ok := toolPolicyFromContext(ctx); ok {
		tools = filterToolsByPolicy(resolver, toolPolicy, tools)
	}

	req := &CompletionRequest{
		Model:     a.defaultModel,
		System:    a.defaultSystem,
		Messages:  state.Messages,
		Tools:     tools,
		MaxTokens: a.config.MaxTokens,
	}

	if system, ok := systemPromptFromContext(ctx); ok {
		req.System = system
	}
	if model, ok := modelFromContext(ctx); ok {
		req.Model = model
	}
	if thinkingLevel := ThinkingLevelFromContext(ctx); thinkingLevel != ThinkingOff {
		if budget := GetThinkingBudget(thinkingLevel); budget > 0 {
			req.EnableThinking = true
			req.ThinkingBudgetTokens = budget
		}
	}

	completionCtx := ctx
	if resolver := APIKeyResolverFromContext(ctx); resolver != nil {
		resolvedKey, keyErr := resolver(ctx, a.provider.Name())
		if keyErr != nil {
			return nil, fmt.Errorf("API key resolution failed: %w", keyErr)
		}
		if resolvedKey != "" {
			completionCtx = WithResolvedAPIKey(ctx, resolvedKey)
		}
	}

	completion, err := a.provider.Complete(completionCtx, req)
	if err != nil {
		return nil, err
	}

	var toolCalls []models.ToolCall
	var textBuilder strings.Builder

	for chunk := range completion {
		if chunk.Error != nil {
			return nil, chunk.Error
		}
		if chunk.ThinkingStart {
			chunks <- &ResponseChunk{ThinkingStart: true}
		}
		if chunk.Thinking != "" {
			chunks <- &ResponseChunk{Thinking: chunk.Thinking}
		}
		if chunk.ThinkingEnd {
			chunks <- &ResponseChunk{ThinkingEnd: true}
		}
		if chunk.Text != "" {
			if textBuilder.Len()+len(chunk.Text) > MaxResponseTextSize {
				return nil, fmt.Errorf("response text exceeds maximum size of %d bytes", MaxResponseTextSize)
			}
			textBuilder.WriteString(chunk.Text)
			chunks <- &ResponseChunk{Text: chunk.Text}
		}
		if chunk.ToolCall != nil {
			if len(toolCalls) >= MaxToolCallsPerIteration {
				return nil, fmt.Errorf("tool calls exceed maximum of %d per iteration", MaxToolCallsPerIteration)
			}
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}
	}

	state.AccumulatedText = textBuilder.String()
	return toolCalls, nil
}

// executeToolsPhase executes pending tool calls in parallel via the executor.
func (a *Agent) executeToolsPhase(ctx context.Context, session *models.Session, state *AgentState, chunks chan<- *ResponseChunk) ([]models.ToolResult, error) {
	if len(state.PendingTools) == 0 {
		return nil, nil
	}

	resolver, toolPolicy, hasPolicy := toolPolicyFromContext(ctx)

	results := make([]models.ToolResult, len(state.PendingTools))
	artifacts := make([][]Artifact, len(state.PendingTools))
	allowedCalls := make([]models.ToolCall, 0, len(state.PendingTools))
	allowedToOriginal := make([]int, 0, len(state.PendingTools))

	for i := range state.PendingTools {
		tc := state.PendingTools[i]

		a.emitToolEvent(chunks, &models.ToolEvent{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Stage:      models.ToolEventRequested,
			Input:      tc.Input,
		})

		if hasPolicy && !resolver.IsAllowed(toolPolicy, tc.Name) {
			res := models.ToolResult{ToolCallID: tc.ID, Content: "tool not allowed: " + tc.Name, IsError: true}
			results[i] = res
			a.emitToolEvent(chunks, &models.ToolEvent{
				ToolCallID: tc.ID, ToolName: tc.Name, Stage: models.ToolEventDenied,
				Error: res.Content, PolicyReason: "tool not allowed by policy", FinishedAt: time.Now(),
			})
			a.persistToolResult(ctx, session, state.AssistantMsgID, tc, res, resolver)
			continue
		}

		allowedCalls = append(allowedCalls, tc)
		allowedToOriginal = append(allowedToOriginal, i)
	}

	for _, idx := range allowedToOriginal {
		tc := state.PendingTools[idx]
		a.emitToolEvent(chunks, &models.ToolEvent{ToolCallID: tc.ID, ToolName: tc.Name, Stage: models.ToolEventStarted, StartedAt: time.Now()})
	}

	execResults := a.executor.ExecuteAll(ctx, allowedCalls)
	for i, r := range execResults {
		origIdx := allowedToOriginal[i]
		tc := state.PendingTools[origIdx]
		switch {
		case r == nil:
			results[origIdx] = models.ToolResult{ToolCallID: tc.ID, Content: "tool execution failed", IsError: true}
			a.emitToolEvent(chunks, &models.ToolEvent{ToolCallID: tc.ID, ToolName: tc.Name, Stage: models.ToolEventFailed, Error: results[origIdx].Content, FinishedAt: time.Now()})
		case r.Error != nil:
			results[origIdx] = models.ToolResult{ToolCallID: r.ToolCallID, Content: r.Error.Error(), IsError: true}
			a.emitToolEvent(chunks, &models.ToolEvent{ToolCallID: r.ToolCallID, ToolName: tc.Name, Stage: models.ToolEventFailed, Error: results[origIdx].Content, FinishedAt: time.Now()})
		case r.Result != nil:
			attachments := artifactsToAttachments(r.Result.Artifacts)
			results[origIdx] = models.ToolResult{ToolCallID: r.ToolCallID, Content: r.Result.Content, IsError: r.Result.IsError, Attachments: attachments}
			artifacts[origIdx] = r.Result.Artifacts
			stage := models.ToolEventSucceeded
			if r.Result.IsError {
				stage = models.ToolEventFailed
			}
			a.emitToolEvent(chunks, &models.ToolEvent{ToolCallID: r.ToolCallID, ToolName: tc.Name, Stage: stage, Output: r.Result.Content, FinishedAt: time.Now()})
		}
		a.persistToolResult(ctx, session, state.AssistantMsgID, tc, results[origIdx], resolver)
	}

	for i := range results {
		if results[i].ToolCallID == "" && i < len(state.PendingTools) {
			results[i].ToolCallID = state.PendingTools[i].ID
		}
	}

	if a.config.StreamToolResults {
		for i := range results {
			chunk := &ResponseChunk{ToolResult: &results[i]}
			if len(artifacts[i]) > 0 {
				chunk.Artifacts = artifacts[i]
			}
			chunks <- chunk
		}
	}

	return results, nil
}

func (a *Agent) continuePhase(state *AgentState, toolCalls []models.ToolCall, toolResults []models.ToolResult) {
	a.addAssistantMessage(state, toolCalls)
	state.Messages = append(state.Messages, CompletionMessage{Role: "tool", ToolResults: toolResults})
	state.AccumulatedText = ""
	state.PendingTools = nil
	state.ToolResults = nil
}

func (a *Agent) addAssistantMessage(state *AgentState, toolCalls []models.ToolCall) {
	state.Messages = append(state.Messages, CompletionMessage{
		Role:      "assistant",
		Content:   state.AccumulatedText,
		ToolCalls: toolCalls,
	})
}

func (a *Agent) persistInboundMessage(ctx context.Context, session *models.Session, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.SessionID == "" {
		msg.SessionID = session.ID
	}
	if msg.Channel == "" {
		msg.Channel = session.Channel
	}
	if msg.ChannelID == "" {
		msg.ChannelID = session.ChannelID
	}
	if msg.Role == "" {
		msg.Role = models.RoleUser
	}
	if msg.Direction == "" {
		msg.Direction = models.DirectionInbound
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return a.sessions.AppendMessage(ctx, session.ID, msg)
}

func (a *Agent) persistAssistantMessage(ctx context.Context, session *models.Session, state *AgentState, toolCalls []models.ToolCall) (string, error) {
	assistantMsg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Channel:   session.Channel,
		ChannelID: session.ChannelID,
		Direction: models.DirectionOutbound,
		Role:      models.RoleAssistant,
		Content:   state.AccumulatedText,
		ToolCalls: toolCalls,
		CreatedAt: time.Now(),
	}
	if err := a.sessions.AppendMessage(ctx, session.ID, assistantMsg); err != nil {
		return "", err
	}
	return assistantMsg.ID, nil
}

func (a *Agent) persistToolMessage(ctx context.Context, session *models.Session, toolCalls []models.ToolCall, toolResults []models.ToolResult) error {
	if len(toolResults) == 0 {
		return nil
	}
	resolver, _, _ := toolPolicyFromContext(ctx)
	guarded := guardToolResults(a.config.ToolResultGuard, toolCalls, toolResults, resolver)
	resultsForStorage := make([]models.ToolResult, len(guarded))
	for i := range guarded {
		resultsForStorage[i] = guarded[i]
		resultsForStorage[i].Attachments = nil
	}
	toolMsg := &models.Message{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		Channel:     session.Channel,
		ChannelID:   session.ChannelID,
		Direction:   models.DirectionInbound,
		Role:        models.RoleTool,
		ToolResults: resultsForStorage,
		CreatedAt:   time.Now(),
	}
	return a.sessions.AppendMessage(ctx, session.ID, toolMsg)
}

func (a *Agent) emitToolEvent(chunks chan<- *ResponseChunk, event *models.ToolEvent) {
	if a.config.DisableToolEvents || event == nil {
		return
	}
	chunks <- &ResponseChunk{ToolEvent: event}
}

func (a *Agent) persistToolCalls(ctx context.Context, session *models.Session, assistantMsgID string, toolCalls []models.ToolCall) {
	if a.config.ToolEvents == nil || session == nil {
		return
	}
	for i := range toolCalls {
		tc := toolCalls[i]
		_ = a.config.ToolEvents.AddToolCall(ctx, session.ID, assistantMsgID, &tc)
	}
}

func (a *Agent) persistToolResult(ctx context.Context, session *models.Session, assistantMsgID string, tc models.ToolCall, res models.ToolResult, resolver *policy.Resolver) {
	if a.config.ToolEvents == nil || session == nil {
		return
	}
	guarded := guardToolResult(a.config.ToolResultGuard, tc.Name, res, resolver)
	_ = a.config.ToolEvents.AddToolResult(ctx, session.ID, assistantMsgID, &tc, &guarded)
}
