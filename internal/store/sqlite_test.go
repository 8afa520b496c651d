package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.CreateSession(ctx, "dashboard")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "dashboard", got.ActiveTool)
	assert.JSONEq(t, `{}`, string(got.Forms))

	got.ActiveTool = "primer"
	got.Forms = json.RawMessage(`{"primer":{"sequence":"ATGC"}}`)
	got.Model = "gemini-2.5-flash"
	require.NoError(t, s.SaveSession(ctx, got))

	reloaded, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "primer", reloaded.ActiveTool)
	assert.Equal(t, "gemini-2.5-flash", reloaded.Model)
	assert.JSONEq(t, `{"primer":{"sequence":"ATGC"}}`, string(reloaded.Forms))

	missing, err := s.GetSession(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, s.SaveSession(ctx, &Session{ID: "nope"}), ErrSessionNotFound)
}

func TestMessagesAppendInOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sess, err := s.CreateSession(ctx, "dashboard")
	require.NoError(t, err)
	other, err := s.CreateSession(ctx, "dashboard")
	require.NoError(t, err)

	msgs := []*Message{
		{ID: "welcome", SessionID: sess.ID, Role: "model", Text: "Hi"},
		{SessionID: sess.ID, Role: "user", Text: "design primers"},
		{SessionID: sess.ID, Role: "model", Text: "Used tools: Primer Design", IsToolCall: true, ToolName: "design_primers",
			FunctionCalls: json.RawMessage(`[{"function":"design_primers","arguments":{},"result":{}}]`)},
		{ID: "welcome", SessionID: other.ID, Role: "model", Text: "Hi"},
	}
	for _, m := range msgs {
		require.NoError(t, s.AppendMessage(ctx, m))
	}
	assert.NotEmpty(t, msgs[1].ID)

	got, err := s.GetMessages(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, i+1, m.Seq)
	}
	assert.Equal(t, "welcome", got[0].ID)
	assert.True(t, got[2].IsToolCall)
	assert.Equal(t, "design_primers", got[2].ToolName)
	assert.JSONEq(t, string(msgs[2].FunctionCalls), string(got[2].FunctionCalls))
	assert.Nil(t, got[1].FunctionCalls)

	require.NoError(t, s.ClearMessages(ctx, sess.ID))
	got, err = s.GetMessages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	kept, err := s.GetMessages(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestAppendMessage_UnknownSession(t *testing.T) {
	s := newTestStore(t)
	err := s.AppendMessage(context.Background(), &Message{SessionID: "nope", Role: "user", Text: "x"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSessionsBefore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	old, err := s.CreateSession(ctx, "dashboard")
	require.NoError(t, err)
	require.NoError(t, s.AppendMessage(ctx, &Message{SessionID: old.ID, Role: "user", Text: "x"}))

	cutoff := time.Now().Add(time.Second)
	n, err := s.DeleteSessionsBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	gone, err := s.GetSession(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	msgs, err := s.GetMessages(ctx, old.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTouchSession_KeepsSessionFromSweep(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	idle, err := s.CreateSession(ctx, "dashboard")
	require.NoError(t, err)
	active, err := s.CreateSession(ctx, "primer")
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, "UPDATE sessions SET updated_at = ?", time.Now().Add(-2*time.Hour).UTC())
	require.NoError(t, err)
	require.NoError(t, s.TouchSession(ctx, active.ID))

	n, err := s.DeleteSessionsBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	gone, err := s.GetSession(ctx, idle.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := s.GetSession(ctx, active.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)

	assert.ErrorIs(t, s.TouchSession(ctx, "missing"), ErrSessionNotFound)
}
