package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harunnryd/eventcorner/internal/auth"
	"github.com/harunnryd/eventcorner/internal/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = auth.Context{UserID: "u1", Token: "secret"}

func newFakeBackend(t *testing.T, mux *http.ServeMux) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return backend.New(srv.URL, backend.WithHTTPClient(srv.Client()), backend.WithAuth(testUser))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		isCmd   bool
		wantErr bool
	}{
		{line: "hello there", isCmd: false},
		{line: "/preview", want: command{name: "/preview", args: []string{}}, isCmd: true},
		{line: `/set title "React Workshop"`, want: command{name: "/set", args: []string{"title", "React Workshop"}}, isCmd: true},
		{line: "/EXIT", want: command{name: "/exit", args: []string{}}, isCmd: true},
		{line: `/set title "unterminated`, isCmd: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, isCmd, err := parseCommand(tt.line)
			assert.Equal(t, tt.isCmd, isCmd)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.isCmd {
				assert.Equal(t, tt.want.name, got.name)
				assert.ElementsMatch(t, tt.want.args, got.args)
			}
		})
	}
}

func TestRunREPL(t *testing.T) {
	var seen []string
	var out bytes.Buffer
	in := strings.NewReader("one\n\n  two  \nbad\nstop\nnever\n")

	err := runREPL(context.Background(), in, &out, func(_ context.Context, line string) (bool, error) {
		seen = append(seen, line)
		switch line {
		case "bad":
			return false, errors.New("boom")
		case "stop":
			return true, nil
		}
		return false, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "bad", "stop"}, seen)
	assert.Contains(t, out.String(), "error: boom")
}

func TestRunREPLHandlesLastLineWithoutNewline(t *testing.T) {
	var seen []string
	err := runREPL(context.Background(), strings.NewReader("only"), &bytes.Buffer{}, func(_ context.Context, line string) (bool, error) {
		seen = append(seen, line)
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, seen)
}

func TestRunREPLStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := runREPL(ctx, strings.NewReader("hello\n"), &bytes.Buffer{}, func(context.Context, string) (bool, error) {
		called = true
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestListIndex(t *testing.T) {
	i, err := listIndex([]string{"rm", "2"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = listIndex([]string{"rm", "4"}, 3)
	assert.Error(t, err)
	_, err = listIndex([]string{"rm", "x"}, 3)
	assert.Error(t, err)
	_, err = listIndex([]string{"rm"}, 3)
	assert.Error(t, err)
}
