package pubcontent

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.ProjectRoot)
	assert.Equal(t, "src/content/blog", cfg.ContentDir)
	assert.Equal(t, "data/content.db", cfg.DatabasePath)
	assert.Equal(t, ":4322", cfg.Addr)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Equal(t, filepath.Join(".", "src/content/blog"), cfg.ContentPath())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pubcontent.yaml")
	content := `
project_root: /srv/site
content_dir: content/posts
workers: 3
fail_fast: true
cache_ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("PUBCONTENT_ADDR", ":9999")
	t.Setenv("PUBCONTENT_WORKERS", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/site", cfg.ProjectRoot)
	assert.Equal(t, "content/posts", cfg.ContentDir)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, filepath.Join("/srv/site", "content/posts"), cfg.ContentPath())
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("workers: [1"), 0o644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	t.Setenv("PUBCONTENT_WORKERS", "many")
	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestContentPathAbsolute(t *testing.T) {
	cfg := Config{ProjectRoot: "/site", ContentDir: "/elsewhere/blog"}
	assert.Equal(t, "/elsewhere/blog", cfg.ContentPath())
}
