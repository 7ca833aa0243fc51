package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harunnryd/eventcorner/internal/auth"
	"github.com/harunnryd/eventcorner/internal/config"
	ecerrors "github.com/harunnryd/eventcorner/internal/errors"
	"github.com/harunnryd/eventcorner/internal/logger"
	"github.com/harunnryd/eventcorner/internal/transcript"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL+"/api",
		WithHTTPClient(server.Client()),
		WithAuth(auth.Context{UserID: "u1", Token: "secret"}),
	)
}

func TestExtractEventClarification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ai/create-event-conversation", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Team meeting next Friday 3pm", req["message"])
		history, ok := req["conversation_history"].([]any)
		require.True(t, ok)
		assert.Len(t, history, 1)

		_, _ = io.WriteString(w, `{"success":true,"result":{"needs_clarification":true,"question":"Where?","extracted_so_far":{"title":"Team meeting"},"missing_fields":["location"],"confidence":0.6}}`)
	})

	res, err := client.ExtractEvent(context.Background(), ExtractRequest{
		Message:             "Team meeting next Friday 3pm",
		ConversationHistory: []transcript.HistoryEntry{{Role: "assistant", Content: "Hi"}},
	})
	require.NoError(t, err)
	assert.True(t, res.NeedsClarification)
	assert.Equal(t, "Where?", res.Question)
	assert.Equal(t, "Team meeting", res.ExtractedSoFar.StringField("title"))
	assert.Equal(t, []string{"location"}, res.MissingFields)
	require.NotNil(t, res.Confidence)
	assert.Equal(t, 0.6, *res.Confidence)
}

func TestExtractEventSendsEmptyHistoryArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"message":"hi","conversation_history":[]}`, string(raw))
		_, _ = io.WriteString(w, `{"success":true,"result":{"needs_clarification":false,"event_data":{"title":"T"},"message":"Done"}}`)
	})

	res, err := client.ExtractEvent(context.Background(), ExtractRequest{Message: "hi"})
	require.NoError(t, err)
	assert.False(t, res.NeedsClarification)
	assert.Equal(t, "T", res.EventData.StringField("title"))
}

func TestExtractEventFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "success false", status: http.StatusOK, body: `{"success":false,"error":"model offline"}`, want: ecerrors.ErrApplication},
		{name: "error field", status: http.StatusOK, body: `{"success":true,"error":"partial failure","result":{}}`, want: ecerrors.ErrApplication},
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"Event conversation failed"}`, want: ecerrors.ErrApplication},
		{name: "model down", status: http.StatusServiceUnavailable, body: `{"detail":"Ollama is not running"}`, want: ecerrors.ErrTransient},
		{name: "bad json", status: http.StatusOK, body: `<html>`, want: ecerrors.ErrTransport},
		{name: "no result", status: http.StatusOK, body: `{"success":true}`, want: ecerrors.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.ExtractEvent(context.Background(), ExtractRequest{Message: "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, ecerrors.IsRequestFailure(err))
		})
	}
}

func TestTransportErrorWhenServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(url)
	_, err := client.Chat(context.Background(), ChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ecerrors.ErrTransport)
}

func TestChat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/chat", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"message":"How do I register?"}`, string(raw))
		_, _ = io.WriteString(w, `{"success":true,"response":"Open the event page."}`)
	})

	reply, err := client.Chat(context.Background(), ChatRequest{Message: "How do I register?"})
	require.NoError(t, err)
	assert.Equal(t, "Open the event page.", reply)
}

func TestGetEvent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/events/ev%201", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"success":true,"event":{"title":"Hackathon","venue_lat":23.9,"tags":["code"],"created_by":{"_id":"u1","name":"Org"},"additional_info":{"dress":"casual"},"timeslots":[{"title":"Day 1","start":"s","end":"e","color":"#fff"}]}}`)
	})

	rec, err := client.GetEvent(context.Background(), "ev 1")
	require.NoError(t, err)
	assert.Equal(t, "ev 1", rec.ID)
	assert.Equal(t, "Hackathon", rec.Title)
	assert.Equal(t, Identity("u1"), rec.CreatedBy)
	require.NotNil(t, rec.VenueLat)
	assert.Equal(t, 23.9, *rec.VenueLat)
	assert.Nil(t, rec.VenueLng)
	assert.Equal(t, map[string]string{"dress": "casual"}, rec.AdditionalInfo)
	require.Len(t, rec.Timeslots, 1)
	assert.Equal(t, "#fff", rec.Timeslots[0].Color)
}

func TestGetEventFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"Event not found"}`)
	})
	_, err := client.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ecerrors.ErrApplication)
	assert.Contains(t, err.Error(), "Event not found")

	_, err = client.GetEvent(context.Background(), " ")
	assert.ErrorIs(t, err, ecerrors.ErrInvalidInput)

	forbidden := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"not yours"}`)
	})
	_, err = forbidden.GetEvent(context.Background(), "ev")
	assert.ErrorIs(t, err, ecerrors.ErrAuthorization)
}

func TestUpdateEvent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/events/ev1", r.URL.Path)

		var payload UpdatePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Hackathon", payload.Title)
		assert.Equal(t, map[string]string{"dress": "casual"}, payload.AdditionalInfo)
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	err := client.UpdateEvent(context.Background(), "ev1", UpdatePayload{
		Title:          "Hackathon",
		AdditionalInfo: map[string]string{"dress": "casual"},
	})
	require.NoError(t, err)

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"error":"Title too long"}`)
	})
	err = failing.UpdateEvent(context.Background(), "ev1", UpdatePayload{})
	assert.ErrorIs(t, err, ecerrors.ErrApplication)
	assert.Contains(t, err.Error(), "Title too long")
}

func TestRequestIDFromContextAndAnonymousAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-123", r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"status":"healthy","model_loaded":true}`)
	}))
	defer server.Close()

	client := New(server.URL + "/")
	ctx := logger.WithRequestID(context.Background(), "req-123")
	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
}

func TestNewFromConfig(t *testing.T) {
	client, err := NewFromConfig(config.BackendConfig{BaseURL: "http://x/api", Timeout: "5s", ChatPath: "/chat"}, auth.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, "/chat", client.paths.Chat)
	assert.Equal(t, config.DefaultBackendExtractPath, client.paths.Extract)

	_, err = NewFromConfig(config.BackendConfig{BaseURL: "http://x", Timeout: "later"}, auth.Anonymous)
	assert.Error(t, err)

	_, err = NewFromConfig(config.BackendConfig{}, auth.Anonymous)
	assert.ErrorIs(t, err, ecerrors.ErrInvalidInput)
}

func TestIdentityUnmarshal(t *testing.T) {
	var rec struct {
		A Identity `json:"a"`
		B Identity `json:"b"`
		C Identity `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"u1","b":{"id":"u2","_id":"ignored"},"c":null}`), &rec))
	assert.Equal(t, Identity("u1"), rec.A)
	assert.Equal(t, Identity("u2"), rec.B)
	assert.Equal(t, Identity(""), rec.C)
}
