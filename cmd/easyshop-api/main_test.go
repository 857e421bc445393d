// ABOUTME: Tests for the command-line subcommands and logger setup
// ABOUTME: Runs token and health against temp config and httptest servers

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyshop/easyshop-api/internal/auth"
	"github.com/easyshop/easyshop-api/internal/config"
	"github.com/easyshop/easyshop-api/internal/llm"
)

func TestBuildPolicy(t *testing.T) {
	p := buildPolicy(config.Default().LLM)
	require.Len(t, p.Candidates, 2)
	assert.Equal(t, llm.Model{Provider: "openai", Name: "gpt-5"}, p.Candidates[0])
	assert.Equal(t, "anthropic", p.Candidates[1].Provider)

	p = buildPolicy(config.LLMConfig{Fallback: config.ModelConfig{Provider: "anthropic", Name: "claude"}})
	assert.Equal(t, []llm.Model{{Provider: "anthropic", Name: "claude"}}, p.Candidates)
	assert.Equal(t, []string{"anthropic/claude"}, modelNames(p))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("WARN").String())
	assert.Equal(t, "ERROR", parseLevel("error").String())
	assert.Equal(t, "INFO", parseLevel("").String())
	assert.Equal(t, "INFO", parseLevel("verbose").String())
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.With("component", "api").Info("store created", "store_id", "s1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "store created", line["msg"])
	assert.Equal(t, "api", line["component"])
	assert.Equal(t, "s1", line["store_id"])
}

func TestSetupLogger_Color(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug"}, &buf)

	logger.With("component", "store").WithGroup("db").Debug("opened", "backend", "sqlite")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "opened")
	assert.Contains(t, out, " component=")
	assert.Contains(t, out, "db.backend=")
	assert.Contains(t, out, "sqlite")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRunToken(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "cli-test-secret")
	t.Setenv("EASYSHOP_CONFIG", "")

	var out bytes.Buffer
	require.NoError(t, runToken([]string{"--sub", "u1", "--email", "amina@example.com", "--ttl", "1h"}, &out))

	verifier, err := auth.NewJWTVerifier([]byte("cli-test-secret"), auth.DefaultAudience)
	require.NoError(t, err)
	claims, err := verifier.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "amina@example.com", claims.Email)
}

func TestRunToken_Flags(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, runToken(nil, &out))
	assert.Error(t, runToken([]string{"--sub", "u1", "--ttl", "0s"}, &out))
	assert.Error(t, runToken([]string{"--bogus"}, &out))
	assert.Empty(t, out.String())
}

func TestRunHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, runHealth(ctx, []string{"--addr", srv.URL}, &out))
	assert.Equal(t, "healthy\n", out.String())

	err := runHealth(ctx, []string{"--addr", srv.URL, "--ready"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
