package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCmd_RunsWithoutSessionSecret(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"healthy","version":"1.2.0","available_endpoints":["/design-primers"]}`)
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"available_models":["gemini-flash"],"default_model":"gemini-flash"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Setenv("SESSION_SECRET", "")
	t.Setenv("BACKEND_URL", srv.URL)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"health"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "status:   healthy")
	assert.Contains(t, out.String(), "models:   gemini-flash (default gemini-flash)")
}

func TestServe_RequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DATABASE_URL", ":memory:")

	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.EqualError(t, err, "SESSION_SECRET environment variable is required")
}
