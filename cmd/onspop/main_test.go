package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onspop/internal/mirror"
	"onspop/internal/ons"
	"onspop/internal/output"
)

func startMirror(t *testing.T) (*mirror.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := mirror.NewServer(mirror.DemoFixture(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"ONSPOP_BASE_URL", "ONSPOP_OUTPUT", "ONSPOP_HISTORY_DB", "ONSPOP_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("ONSPOP_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFetchWritesRecordAndHistory(t *testing.T) {
	_, baseURL := startMirror(t)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "data", "data.json")
	dbPath := filepath.Join(dir, "history.db")

	_, err := execute(t, "fetch", "--base-url", baseURL, "--out", outPath, "--history-db", dbPath)
	require.NoError(t, err)

	rec, err := output.ReadRecord(outPath)
	require.NoError(t, err)
	assert.Equal(t, float64(45000), rec.Population)
	assert.Equal(t, "2022", rec.Period)
	assert.Equal(t, "pop-est", rec.DatasetID)

	listing, err := execute(t, "history", "list", "--history-db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, listing, "E07000046")
	assert.Contains(t, listing, "time-series/2")

	csvPath := filepath.Join(dir, "history.csv")
	_, err = execute(t, "history", "export", "--history-db", dbPath, "--out", csvPath)
	require.NoError(t, err)
	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "run_id,geography,population")
	assert.Contains(t, string(b), ",45000,2022,")
}

func TestRootRunsFetch(t *testing.T) {
	_, baseURL := startMirror(t)
	outPath := filepath.Join(t.TempDir(), "data.json")

	_, err := execute(t, "--base-url", baseURL, "-o", outPath)
	require.NoError(t, err)
	_, err = os.Stat(outPath)
	assert.NoError(t, err)
}

func TestFetchFailureWritesNothing(t *testing.T) {
	srv, baseURL := startMirror(t)
	srv.Fail(mirror.RouteVersions, http.StatusInternalServerError)
	outPath := filepath.Join(t.TempDir(), "data.json")

	_, err := execute(t, "fetch", "--base-url", baseURL, "--out", outPath)
	require.Error(t, err)

	var apiErr *ons.APIError
	assert.True(t, errors.As(err, &apiErr))
	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchRejectsUnknownStrategy(t *testing.T) {
	_, err := execute(t, "fetch", "--strategy", "guess", "--out", filepath.Join(t.TempDir(), "x.json"))
	assert.ErrorContains(t, err, "unknown dimension strategy")
}

func TestRunExitCode(t *testing.T) {
	t.Setenv("ONSPOP_HISTORY_DB", "")
	t.Setenv("ONSPOP_LOG_LEVEL", "error")

	t.Run("api failure", func(t *testing.T) {
		srv, baseURL := startMirror(t)
		srv.Fail(mirror.RouteEditions, http.StatusInternalServerError)
		outPath := filepath.Join(t.TempDir(), "data.json")

		var stderr bytes.Buffer
		code := run([]string{"fetch", "--base-url", baseURL, "--out", outPath}, &stderr)

		assert.Equal(t, 1, code)
		assert.Contains(t, stderr.String(), "onspop:")
		assert.Contains(t, stderr.String(), "500")
		_, statErr := os.Stat(outPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("success", func(t *testing.T) {
		_, baseURL := startMirror(t)
		outPath := filepath.Join(t.TempDir(), "data.json")

		var stderr bytes.Buffer
		code := run([]string{"fetch", "--base-url", baseURL, "--out", outPath}, &stderr)

		assert.Equal(t, 0, code, stderr.String())
		_, err := output.ReadRecord(outPath)
		assert.NoError(t, err)
	})
}

func TestHistoryExportToStdout(t *testing.T) {
	_, baseURL := startMirror(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")

	_, err := execute(t, "fetch", "--base-url", baseURL, "--out", filepath.Join(dir, "data.json"), "--history-db", dbPath)
	require.NoError(t, err)

	out, err := execute(t, "history", "export", "--history-db", dbPath, "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "run_id,geography,population")
	assert.Contains(t, out, ",45000,2022,")
}

func TestHistoryExportUncreatablePath(t *testing.T) {
	_, baseURL := startMirror(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")

	_, err := execute(t, "fetch", "--base-url", baseURL, "--out", filepath.Join(dir, "data.json"), "--history-db", dbPath)
	require.NoError(t, err)

	// the target is an existing directory, so the file cannot be created
	_, err = execute(t, "history", "export", "--history-db", dbPath, "--out", dir)
	assert.Error(t, err)
}
