package core

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/chart"
	"unibio.dev/workbench/internal/logging"
	"unibio.dev/workbench/internal/sequence"
	"unibio.dev/workbench/internal/store"
	"unibio.dev/workbench/internal/toolcalls"
)

const (
	RoleUser  = "user"
	RoleModel = "model"

	WelcomeID            = "welcome"
	MaxChatMessageLength = 10000

	welcomeText = "Hi! I'm the UniBio assistant. I can design primers, find restriction sites, " +
		"plan Gibson assemblies, and search NCBI and PubMed. What are you working on?"
)

type ChatMessage struct {
	ID            string
	Role          string
	Text          string
	IsToolCall    bool
	ToolName      string
	FunctionCalls []backend.FunctionCall
}

func welcomeMessage() ChatMessage {
	return ChatMessage{ID: WelcomeID, Role: RoleModel, Text: welcomeText}
}

// MessageStore persists chat transcripts. *store.SQLiteStore implements it.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *store.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]store.Message, error)
	ClearMessages(ctx context.Context, sessionID string) error
}

type ChatView struct {
	Messages []ChatMessage
	Charts   []chart.Chart
	Error    string
	Busy     bool
}

// ChatSidebar holds one session's conversation. Messages are append-only; clearing
// starts over from the welcome message.
type ChatSidebar struct {
	sessionID  string
	backend    Backend
	store      MessageStore
	maxHistory int
	track      tracker

	mu       sync.Mutex
	messages []ChatMessage
	charts   []chart.Chart
	err      string
}

func NewChatSidebar(sessionID string, b Backend, ms MessageStore, maxHistory int) *ChatSidebar {
	return &ChatSidebar{sessionID: sessionID, backend: b, store: ms, maxHistory: maxHistory}
}

// Load reads the saved transcript. A session without one starts with the welcome message.
func (c *ChatSidebar) Load(ctx context.Context) error {
	saved, err := c.store.GetMessages(ctx, c.sessionID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = c.messages[:0]
	for _, m := range saved {
		msg := ChatMessage{ID: m.ID, Role: m.Role, Text: m.Text, IsToolCall: m.IsToolCall, ToolName: m.ToolName}
		if len(m.FunctionCalls) > 0 {
			if err := json.Unmarshal(m.FunctionCalls, &msg.FunctionCalls); err != nil {
				logging.Logger.Warn("dropping unreadable function calls", "session", c.sessionID, "message", m.ID, "error", err)
			}
		}
		c.messages = append(c.messages, msg)
	}
	if len(c.messages) == 0 {
		c.appendLocked(ctx, welcomeMessage())
	}
	c.charts = latestCharts(c.messages)
	return nil
}

func (c *ChatSidebar) View() ChatView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChatView{
		Messages: append([]ChatMessage(nil), c.messages...),
		Charts:   c.charts,
		Error:    c.err,
		Busy:     c.track.busy("send"),
	}
}

// History is what the backend sees: every message except the welcome text and tool-call
// markers, newest maxHistory entries.
func (c *ChatSidebar) History() []backend.ChatHistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return historyOf(c.messages, c.maxHistory)
}

func historyOf(messages []ChatMessage, limit int) []backend.ChatHistoryEntry {
	history := []backend.ChatHistoryEntry{}
	for _, m := range messages {
		if m.ID == WelcomeID || m.IsToolCall {
			continue
		}
		history = append(history, backend.ChatHistoryEntry{Role: m.Role, Text: m.Text})
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

// Send runs one chat turn. The turn always ends with at least one visible model message:
// the reply, a fallback naming the tools that ran, or a friendly error.
func (c *ChatSidebar) Send(ctx context.Context, text, model string) error {
	text = strings.TrimSpace(text)
	if err := validateChatMessage(text); err != nil {
		c.setError(UserMessage(err))
		return err
	}

	gen, err := c.track.begin("send")
	if err != nil {
		c.setError(ErrBusy.Error())
		return err
	}

	c.mu.Lock()
	history := historyOf(c.messages, c.maxHistory)
	c.err = ""
	c.appendLocked(ctx, ChatMessage{ID: uuid.NewString(), Role: RoleUser, Text: text})
	c.mu.Unlock()

	resp, err := c.backend.Chat(ctx, backend.ChatRequest{Message: text, History: history, Model: model})
	if !c.track.end("send", gen) {
		logging.Logger.Debug("dropping chat response for a cleared conversation", "session", c.sessionID)
		return ErrStale
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err != nil:
		logging.Logger.Warn("chat request failed", "session", c.sessionID, "error", err)
		c.appendLocked(ctx, modelMessage(friendlyChatError(err.Error(), UserMessage(err))))
	case resp.Failed():
		logging.Logger.Warn("chat backend reported failure", "session", c.sessionID, "error", resp.Error)
		c.appendLocked(ctx, modelMessage(friendlyChatError(resp.Error, resp.Error)))
	default:
		for _, msg := range turnMessages(resp) {
			c.appendLocked(ctx, msg)
		}
	}
	c.charts = latestCharts(c.messages)
	return nil
}

// Clear discards the conversation. A reply still in flight is dropped when it lands.
func (c *ChatSidebar) Clear(ctx context.Context) error {
	c.track.bump()
	if err := c.store.ClearMessages(ctx, c.sessionID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.charts = nil
	c.err = ""
	c.appendLocked(ctx, welcomeMessage())
	return nil
}

func (c *ChatSidebar) setError(msg string) {
	c.mu.Lock()
	c.err = msg
	c.mu.Unlock()
}

// appendLocked adds msg to the transcript. A failed write is logged; the message still
// shows for the rest of the session.
func (c *ChatSidebar) appendLocked(ctx context.Context, msg ChatMessage) {
	c.messages = append(c.messages, msg)

	rec := &store.Message{
		ID:         msg.ID,
		SessionID:  c.sessionID,
		Role:       msg.Role,
		Text:       msg.Text,
		IsToolCall: msg.IsToolCall,
		ToolName:   msg.ToolName,
	}
	if len(msg.FunctionCalls) > 0 {
		raw, err := json.Marshal(msg.FunctionCalls)
		if err == nil {
			rec.FunctionCalls = raw
		}
	}
	if err := c.store.AppendMessage(ctx, rec); err != nil {
		logging.Logger.Error("failed to save chat message", "session", c.sessionID, "message", msg.ID, "error", err)
	}
}

func validateChatMessage(text string) error {
	if err := sequence.Required("message", text, "Enter a message"); err != nil {
		return err
	}
	if utf8.RuneCountInString(text) > MaxChatMessageLength {
		return &sequence.ValidationError{Field: "message", Message: "Message too long (max 10000 characters)"}
	}
	return nil
}

func modelMessage(text string) ChatMessage {
	return ChatMessage{ID: uuid.NewString(), Role: RoleModel, Text: text}
}

// turnMessages converts a successful reply into transcript entries: one tool-call marker
// when tools ran, then the visible reply.
func turnMessages(resp *backend.ChatResponse) []ChatMessage {
	var out []ChatMessage
	names := toolNames(resp.FunctionCalls)
	if len(resp.FunctionCalls) > 0 {
		display := make([]string, len(names))
		for i, n := range names {
			display[i] = toolcalls.DisplayName(n)
		}
		out = append(out, ChatMessage{
			ID:            uuid.NewString(),
			Role:          RoleModel,
			Text:          "Used tools: " + strings.Join(display, ", "),
			IsToolCall:    true,
			ToolName:      strings.Join(names, ","),
			FunctionCalls: resp.FunctionCalls,
		})
	}

	text := strings.TrimSpace(resp.Response)
	if text == "" {
		text = fallbackReply(names)
	}
	return append(out, modelMessage(text))
}

// toolNames lists distinct function names in call order.
func toolNames(calls []backend.FunctionCall) []string {
	var names []string
	seen := map[string]bool{}
	for _, fc := range calls {
		if !seen[fc.Function] {
			seen[fc.Function] = true
			names = append(names, fc.Function)
		}
	}
	return names
}

func fallbackReply(names []string) string {
	if len(names) == 0 {
		return "I didn't get a response for that. Please try rephrasing your question."
	}
	display := make([]string, len(names))
	for i, n := range names {
		display[i] = toolcalls.DisplayName(n)
	}
	return "I ran " + strings.Join(display, ", ") + ". The results are shown below."
}

// latestCharts charts the tool calls of the most recent turn, the messages after the
// last user message.
func latestCharts(messages []ChatMessage) []chart.Chart {
	start := 0
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			start = i + 1
			break
		}
	}
	var calls []backend.FunctionCall
	for _, m := range messages[start:] {
		if m.IsToolCall {
			calls = append(calls, m.FunctionCalls...)
		}
	}
	if len(calls) == 0 {
		return nil
	}
	res := toolcalls.Dispatch(calls)
	for _, s := range res.Skipped {
		logging.Logger.Debug("tool call not charted", "function", s.Function, "reason", s.Reason)
	}
	return res.Charts
}

// friendlyChatError maps an error text onto advice the user can act on. detail is shown
// when nothing more specific matches.
func friendlyChatError(msg, detail string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timed out"), strings.Contains(lower, "timeout"):
		return "The request timed out. The assistant may be running several tools; please try again or ask something simpler."
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "connect"):
		return "Cannot reach the backend server. Make sure it is running and try again."
	case strings.Contains(lower, "api key"), strings.Contains(lower, "api_key"):
		return "The assistant is not configured: the backend's model API key is missing or invalid."
	case strings.Contains(lower, "quota"), strings.Contains(lower, "rate limit"), strings.Contains(lower, "429"):
		return "The assistant is rate limited right now. Please wait a moment and try again."
	}
	if detail == "" {
		detail = "unknown error"
	}
	return "Sorry, something went wrong: " + detail
}
