package core

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/chart"
	"unibio.dev/workbench/internal/store"
)

func designPrimersCall() backend.FunctionCall {
	return backend.FunctionCall{
		Function:  "design_primers",
		Arguments: json.RawMessage(`{"sequence":"ATGCATGCATGC"}`),
		Result:    json.RawMessage(`{"success":true,"primer_pairs":[{"left_tm":58.2,"right_tm":59.1}]}`),
	}
}

func visible(msgs []ChatMessage) []ChatMessage {
	var out []ChatMessage
	for _, m := range msgs {
		if !m.IsToolCall {
			out = append(out, m)
		}
	}
	return out
}

func TestChat_StartsWithWelcome(t *testing.T) {
	wb, _ := newTestWorkbench(t, &fakeBackend{})
	v := wb.Chat.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, WelcomeID, v.Messages[0].ID)
	assert.Equal(t, RoleModel, v.Messages[0].Role)
	assert.Empty(t, wb.Chat.History())
}

func TestChat_ToolCallWithEmptyReply(t *testing.T) {
	fb := &fakeBackend{chat: func(backend.ChatRequest) (*backend.ChatResponse, error) {
		return &backend.ChatResponse{FunctionCalls: []backend.FunctionCall{designPrimersCall()}}, nil
	}}
	wb, _ := newTestWorkbench(t, fb)

	require.NoError(t, wb.Chat.Send(context.Background(), "design primers for this", ""))

	v := wb.Chat.View()
	require.Len(t, v.Messages, 4)
	marker := v.Messages[2]
	assert.True(t, marker.IsToolCall)
	assert.Equal(t, "design_primers", marker.ToolName)
	assert.Equal(t, "Used tools: Primer Design", marker.Text)

	shown := visible(v.Messages[2:])
	require.Len(t, shown, 1)
	assert.Equal(t, "I ran Primer Design. The results are shown below.", shown[0].Text)

	require.Len(t, v.Charts, 1)
	assert.Equal(t, chart.KindGroupedBar, v.Charts[0].Kind())
	assert.Empty(t, v.Error)
	assert.False(t, v.Busy)
}

func TestChat_ReplyWithoutSuccessField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"response":"","function_calls":[{"function":"design_primers","arguments":{},"result":{"primer_pairs":[{"pair_id":0,"left_tm":58.2,"right_tm":59.1}]}}],"iterations":1}`)
	}))
	defer srv.Close()
	wb, _ := newTestWorkbench(t, backend.NewClient(srv.URL))

	require.NoError(t, wb.Chat.Send(context.Background(), "design primers for this", ""))

	v := wb.Chat.View()
	require.Len(t, v.Messages, 4)
	assert.True(t, v.Messages[2].IsToolCall)
	assert.Equal(t, "Used tools: Primer Design", v.Messages[2].Text)
	assert.Equal(t, RoleModel, v.Messages[3].Role)
	assert.Equal(t, "I ran Primer Design. The results are shown below.", v.Messages[3].Text)
	require.Len(t, v.Charts, 1)
	assert.Empty(t, v.Error)
}

func TestChat_HistorySkipsWelcomeAndMarkers(t *testing.T) {
	var mu sync.Mutex
	var requests []backend.ChatRequest
	fb := &fakeBackend{chat: func(req backend.ChatRequest) (*backend.ChatResponse, error) {
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()
		return &backend.ChatResponse{FunctionCalls: []backend.FunctionCall{designPrimersCall()}}, nil
	}}
	wb, _ := newTestWorkbench(t, fb)
	ctx := context.Background()

	require.NoError(t, wb.Chat.Send(ctx, "first", "gemini-pro"))
	require.NoError(t, wb.Chat.Send(ctx, "second", "gemini-pro"))

	require.Len(t, requests, 2)
	assert.Empty(t, requests[0].History)
	assert.NotNil(t, requests[0].History)
	assert.Equal(t, "gemini-pro", requests[0].Model)
	assert.Equal(t, []backend.ChatHistoryEntry{
		{Role: RoleUser, Text: "first"},
		{Role: RoleModel, Text: "I ran Primer Design. The results are shown below."},
	}, requests[1].History)
	assert.Equal(t, "second", requests[1].Message)
}

func TestHistoryOf_KeepsNewest(t *testing.T) {
	msgs := []ChatMessage{welcomeMessage()}
	for _, text := range []string{"a", "b", "c", "d"} {
		msgs = append(msgs, ChatMessage{ID: text, Role: RoleUser, Text: text})
	}
	got := historyOf(msgs, 2)
	assert.Equal(t, []backend.ChatHistoryEntry{{Role: RoleUser, Text: "c"}, {Role: RoleUser, Text: "d"}}, got)
	assert.Len(t, historyOf(msgs, 0), 4)
}

func TestChat_Validation(t *testing.T) {
	fb := &fakeBackend{}
	wb, _ := newTestWorkbench(t, fb)
	ctx := context.Background()

	require.Error(t, wb.Chat.Send(ctx, "   ", ""))
	assert.Equal(t, "Enter a message", wb.Chat.View().Error)

	require.Error(t, wb.Chat.Send(ctx, strings.Repeat("a", MaxChatMessageLength+1), ""))
	assert.Equal(t, "Message too long (max 10000 characters)", wb.Chat.View().Error)

	assert.Zero(t, fb.Calls("chat"))
	assert.Len(t, wb.Chat.View().Messages, 1)
}

func TestChat_FailureBecomesModelMessage(t *testing.T) {
	tests := []struct {
		name string
		resp *backend.ChatResponse
		err  error
		want string
	}{
		{
			name: "timeout",
			err:  &backend.Error{Op: "chat", Kind: backend.KindTimeout},
			want: "The request timed out. The assistant may be running several tools; please try again or ask something simpler.",
		},
		{
			name: "backend down",
			err:  &backend.Error{Op: "chat", Kind: backend.KindConnection, BaseURL: "http://localhost:8000"},
			want: "Cannot reach the backend server. Make sure it is running and try again.",
		},
		{
			name: "unsuccessful reply",
			resp: &backend.ChatResponse{Error: "429 Resource has been exhausted"},
			want: "The assistant is rate limited right now. Please wait a moment and try again.",
		},
		{
			name: "other failure",
			resp: &backend.ChatResponse{Error: "model overloaded"},
			want: "Sorry, something went wrong: model overloaded",
		},
		{
			name: "explicit success false",
			resp: &backend.ChatResponse{Success: new(bool), Response: "ignored"},
			want: "Sorry, something went wrong: unknown error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBackend{chat: func(backend.ChatRequest) (*backend.ChatResponse, error) {
				return tt.resp, tt.err
			}}
			wb, _ := newTestWorkbench(t, fb)

			require.NoError(t, wb.Chat.Send(context.Background(), "hello", ""))

			msgs := wb.Chat.View().Messages
			require.Len(t, msgs, 3)
			assert.Equal(t, RoleModel, msgs[2].Role)
			assert.Equal(t, tt.want, msgs[2].Text)
		})
	}
}

func TestFriendlyChatError(t *testing.T) {
	tests := []struct {
		msg, detail, want string
	}{
		{"context deadline exceeded (Client.Timeout)", "", "The request timed out. The assistant may be running several tools; please try again or ask something simpler."},
		{"dial tcp: connection refused", "", "Cannot reach the backend server. Make sure it is running and try again."},
		{"GEMINI_API_KEY not set", "", "The assistant is not configured: the backend's model API key is missing or invalid."},
		{"Quota exceeded", "", "The assistant is rate limited right now. Please wait a moment and try again."},
		{"weird", "weird", "Sorry, something went wrong: weird"},
		{"", "", "Sorry, something went wrong: unknown error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, friendlyChatError(tt.msg, tt.detail), tt.msg)
	}
}

func TestChat_ClearDropsReplyInFlight(t *testing.T) {
	started, release := make(chan struct{}, 1), make(chan struct{})
	fb := &fakeBackend{chat: func(backend.ChatRequest) (*backend.ChatResponse, error) {
		started <- struct{}{}
		<-release
		return &backend.ChatResponse{Response: "too late"}, nil
	}}
	wb, s := newTestWorkbench(t, fb)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- wb.Chat.Send(ctx, "hello", "") }()
	<-started
	assert.True(t, wb.Chat.View().Busy)

	require.NoError(t, wb.Chat.Clear(ctx))
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(5 * time.Second):
		t.Fatal("send did not return")
	}

	v := wb.Chat.View()
	require.Len(t, v.Messages, 1)
	assert.Equal(t, WelcomeID, v.Messages[0].ID)
	assert.Empty(t, v.Charts)

	saved, err := s.GetMessages(ctx, wb.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, WelcomeID, saved[0].ID)
}

func TestManager_RestoresSession(t *testing.T) {
	fb := &fakeBackend{chat: func(backend.ChatRequest) (*backend.ChatResponse, error) {
		return &backend.ChatResponse{Response: "Here you go.", FunctionCalls: []backend.FunctionCall{designPrimersCall()}}, nil
	}}
	s := newTestStore(t)
	ctx := context.Background()

	wb, err := NewManager(s, fb, time.Minute, 50).Open(ctx, "")
	require.NoError(t, err)
	require.NoError(t, wb.SelectTool(ctx, ToolPrimer))
	require.NoError(t, wb.SelectModel(ctx, "gemini-flash"))
	form := DefaultForms().Primer
	form.Sequence = "ATGCATGC"
	require.NoError(t, wb.UpdatePrimerForm(ctx, form))
	require.NoError(t, wb.Chat.Send(ctx, "design primers", ""))

	again, err := NewManager(s, fb, time.Minute, 50).Open(ctx, wb.ID)
	require.NoError(t, err)
	assert.Equal(t, wb.ID, again.ID)
	assert.Equal(t, ToolPrimer, again.State.Active())
	assert.Equal(t, "gemini-flash", again.State.Model())
	assert.Equal(t, form, again.State.Forms().Primer)

	v := again.Chat.View()
	require.Len(t, v.Messages, 4)
	assert.Equal(t, "Here you go.", v.Messages[3].Text)
	require.Len(t, v.Messages[2].FunctionCalls, 1)
	assert.Len(t, v.Charts, 1, "charts of the latest turn come back with the transcript")
}

func TestManager_OpenUnknownCreatesSession(t *testing.T) {
	s := newTestStore(t)
	m := NewManager(s, &fakeBackend{}, time.Minute, 50)
	ctx := context.Background()

	wb, err := m.Open(ctx, "no-such-session")
	require.NoError(t, err)
	assert.NotEqual(t, "no-such-session", wb.ID)
	assert.Equal(t, ToolDashboard, wb.State.Active())

	same, err := m.Open(ctx, wb.ID)
	require.NoError(t, err)
	assert.Same(t, wb, same)
	assert.Equal(t, 1, m.Live())
}

// touchCounter counts activity writes on top of a real store.
type touchCounter struct {
	*store.SQLiteStore
	touches int
}

func (s *touchCounter) TouchSession(ctx context.Context, id string) error {
	s.touches++
	return s.SQLiteStore.TouchSession(ctx, id)
}

func TestManager_OpenRecordsActivity(t *testing.T) {
	s := &touchCounter{SQLiteStore: newTestStore(t)}
	m := NewManager(s, &fakeBackend{}, time.Minute, 50)
	ctx := context.Background()

	wb, err := m.Open(ctx, "")
	require.NoError(t, err)
	_, err = m.Open(ctx, wb.ID)
	require.NoError(t, err)
	assert.Zero(t, s.touches, "fresh sessions are not touched again within the interval")

	wb.touched = time.Now().Add(-2 * touchInterval)
	_, err = m.Open(ctx, wb.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.touches)

	_, err = m.Open(ctx, wb.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.touches)

	sess, err := s.GetSession(ctx, wb.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), sess.UpdatedAt, time.Minute)

	n, err := m.Sweep(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWorkbench_UnchangedFormKeepsResults(t *testing.T) {
	fb := &fakeBackend{restriction: func(backend.RestrictionRequest) (*backend.RestrictionResponse, error) {
		return &backend.RestrictionResponse{TotalEnzymesFound: 1, Enzymes: []backend.RestrictionEnzyme{
			{EnzymeName: "EcoRI", CutCount: 1, CutPositions: []int{1}},
		}}, nil
	}}
	wb, _ := newTestWorkbench(t, fb)
	ctx := context.Background()
	form := RestrictionForm{Sequence: "GAATTCAAAA"}

	require.NoError(t, wb.UpdateRestrictionForm(ctx, form))
	require.NoError(t, wb.Restriction.Analyze(ctx, form))
	require.NoError(t, wb.UpdateRestrictionForm(ctx, form))
	assert.Len(t, wb.Restriction.View().Groups, 1)

	require.NoError(t, wb.UpdateRestrictionForm(ctx, RestrictionForm{Sequence: "GGATCC"}))
	assert.Empty(t, wb.Restriction.View().Groups)
}

func TestRestoreAppState(t *testing.T) {
	s, err := RestoreAppState("gibson", []byte(`{"gibson":{"vector_seq":"AAAA","overlap_length":30}}`), "m")
	require.NoError(t, err)
	assert.Equal(t, ToolGibson, s.Active())
	assert.Equal(t, 30, s.Forms().Gibson.OverlapLength)
	assert.Equal(t, 57.0, s.Forms().Primer.MinTm, "missing forms keep defaults")

	s, err = RestoreAppState("bogus", []byte("{"), "")
	require.Error(t, err)
	assert.Equal(t, ToolDashboard, s.Active())
}
