package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/output"
)

func newTestCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	output.SetOutput(&buf)
	t.Cleanup(func() { output.SetOutput(os.Stdout) })

	cfg, err := pubcontent.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.ProjectRoot = t.TempDir()
	cfg.DatabasePath = filepath.Join(cfg.ProjectRoot, "data", "content.db")
	return &cli{cfg: cfg}, &buf
}

func TestNewThenCheck(t *testing.T) {
	c, buf := newTestCLI(t)

	cmd := c.newCmd()
	cmd.SetArgs([]string{"Hello, World!", "--tags", "go,web", "-d", "First post"})
	require.NoError(t, cmd.ExecuteContext(t.Context()))

	path := filepath.Join(c.cfg.ContentPath(), "hello-world.md")
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(src), `title: "Hello, World!"`)
	assert.Contains(t, string(src), `tags: ["go", "web"]`)
	assert.Contains(t, buf.String(), "Front-matter is valid")

	cmd = c.newCmd()
	cmd.SetArgs([]string{"Hello World"})
	assert.ErrorContains(t, cmd.ExecuteContext(t.Context()), "already exists")

	buf.Reset()
	cmd = c.checkCmd()
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.ExecuteContext(t.Context()))
	assert.Contains(t, buf.String(), "1 content files are valid")
}

func TestCheckReportsInvalidFiles(t *testing.T) {
	c, buf := newTestCLI(t)
	path := filepath.Join(c.cfg.ContentPath(), "bad.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Bad\ntags: [1]\n---\n"), 0o644))

	cmd := c.checkCmd()
	cmd.SetArgs([]string{})
	err := cmd.ExecuteContext(t.Context())
	require.Error(t, err)
	assert.Equal(t, "1 of 1 content files are invalid", err.Error())

	out := buf.String()
	assert.Contains(t, out, "src/content/blog/bad.md")
	assert.Contains(t, out, "description: ")
	assert.Contains(t, out, "tags[0]")
}

func TestIndexCommand(t *testing.T) {
	c, buf := newTestCLI(t)
	path := filepath.Join(c.cfg.ContentPath(), "post.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Post\ndescription: D\npubDate: 2024-01-01\ntags: []\n---\n"), 0o644))

	cmd := c.indexCmd()
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.ExecuteContext(t.Context()))
	assert.Contains(t, buf.String(), "Indexed 1 posts")

	store, err := pubcontent.NewStore(c.cfg.DatabasePath)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.GetPost(t.Context(), "post")
	require.NoError(t, err)
	assert.Equal(t, "Post", got.Data.Title)
}
