package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infosec-dashboard/internal/gateway"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("INFOSEC_EMAIL", "")
	t.Setenv("INFOSEC_PASSWORD", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAssessmentsCommand(t *testing.T) {
	out, err := run(t, "assessments", "--status", "Completed")
	require.NoError(t, err)
	assert.Contains(t, out, "Annual Security Review 2024")
	assert.Contains(t, out, "Q1 Compliance Check")
	assert.NotContains(t, out, "Network Security Assessment")

	_, err = run(t, "assessments", "--date", "someday")
	require.Error(t, err)
}

func TestAnalyzeRejectsNonSheetURL(t *testing.T) {
	_, err := run(t, "analyze", "https://example.com/not-a-sheet")
	require.ErrorIs(t, err, gateway.ErrInvalidSheetURL)
}

func TestOneShotCommandsNeedCredentials(t *testing.T) {
	_, err := run(t, "ask", "what", "is", "policy", "X?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email")
}
