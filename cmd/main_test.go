package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imageforensics/internal/domain"
	"imageforensics/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Setenv("APP_ELA_DIR", filepath.Join(t.TempDir(), "ela_results"))
	t.Setenv("LOG_LEVEL", "error")
}

func TestAnalyze_PrintsResults(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	testutil.WriteJPEG(t, dir, "a.jpg", testutil.Gradient(16, 16))
	testutil.WriteFile(t, dir, "notes.txt", []byte("skip me"))

	out, err := execute(t, "analyze", dir)
	require.NoError(t, err)

	var resp domain.ProcessFolderResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a.jpg", resp.Results[0].Image)
	assert.FileExists(t, resp.Results[0].ELAImagePath)
}

func TestAnalyze_MissingFolder(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "analyze", filepath.Join(t.TempDir(), "gone"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "Folder not found"}`, out)
}

func TestSubmit_PostsFolderPath(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/process-folder", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	out, err := execute(t, "submit", "/cases/42", "--server", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"folder_path": "/cases/42"}, got)
	assert.JSONEq(t, `{"results": []}`, out)
}

func TestSubmit_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"Folder not allowed"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "submit", "/etc", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.JSONEq(t, `{"error": "Folder not allowed"}`, out)
}
