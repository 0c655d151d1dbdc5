package pubcontent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubcontent/frontmatter"
	"github.com/eringen/pubcontent/logging"
	"github.com/eringen/pubcontent/schema"
)

var contentExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdx":      true,
}

// Loader reads and validates every post in a content directory.
type Loader struct {
	cfg       Config
	resolver  *FileImageResolver
	validator *schema.Validator
	metrics   *Metrics
	log       zerolog.Logger
}

// NewLoader creates a Loader for cfg. metrics may be nil.
func NewLoader(cfg Config, metrics *Metrics) (*Loader, error) {
	cfg.setDefaults()
	resolver, err := NewFileImageResolver(cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("pubcontent: %w", err)
	}
	var opts []schema.Option
	if cfg.FailFast {
		opts = append(opts, schema.WithFailFast())
	}
	return &Loader{
		cfg:       cfg,
		resolver:  resolver,
		validator: schema.New(nil, opts...),
		metrics:   metrics,
		log:       logging.WithComponent("loader"),
	}, nil
}

// Resolver returns the image resolver used for content files.
func (l *Loader) Resolver() *FileImageResolver {
	return l.resolver
}

// Validator returns a validator for the content file at path, a
// filesystem path as found by the directory walk.
func (l *Loader) Validator(path string) *schema.Validator {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return l.validator.WithResolver(l.resolver.ForFile(path))
}

// ProjectValidator returns a validator for a file named relative to the
// project root. An empty name resolves images against the content directory.
func (l *Loader) ProjectValidator(name string) *schema.Validator {
	if name == "" {
		return l.validator.WithResolver(l.resolver.ForDir(filepath.FromSlash(l.cfg.ContentDir)))
	}
	return l.validator.WithResolver(l.resolver.ForFile(filepath.FromSlash(name)))
}

// Load walks the content directory and validates every content file
// concurrently. Invalid files are reported in Collection.Errors; the
// returned error is only set when the directory itself cannot be read or
// ctx is cancelled.
func (l *Loader) Load(ctx context.Context) (*Collection, error) {
	dir := l.cfg.ContentPath()
	files, err := l.discover(dir)
	if err != nil {
		return nil, fmt.Errorf("pubcontent: scan %s: %w", dir, err)
	}

	type result struct {
		entry Entry
		err   error
	}
	results := make([]result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			entry, err := l.loadFile(gctx, dir, path)
			l.metrics.ObserveFile(err, time.Since(start))
			results[i] = result{entry: entry, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &Collection{LoadedAt: time.Now()}
	seen := make(map[string]string)
	for i, res := range results {
		rel := l.relPath(files[i])
		if res.err != nil {
			c.Errors = append(c.Errors, &FileError{Path: rel, Err: res.err})
			l.log.Warn().Str("file", rel).Err(res.err).Msg("invalid content file")
			continue
		}
		if other, dup := seen[res.entry.Slug]; dup {
			err := fmt.Errorf("slug %q is already used by %s", res.entry.Slug, other)
			c.Errors = append(c.Errors, &FileError{Path: rel, Err: err})
			l.log.Warn().Str("file", rel).Err(err).Msg("duplicate slug")
			continue
		}
		seen[res.entry.Slug] = rel
		c.Entries = append(c.Entries, res.entry)
	}
	sortEntries(c.Entries)
	l.metrics.ObserveCollection(c)

	l.log.Info().
		Int("entries", len(c.Entries)).
		Int("invalid", len(c.Errors)).
		Msg("content collection loaded")
	return c, nil
}

// LoadFile parses and validates a single content file.
func (l *Loader) LoadFile(ctx context.Context, path string) (Entry, error) {
	return l.loadFile(ctx, l.cfg.ContentPath(), path)
}

func (l *Loader) discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			return nil
		}
		if contentExts[strings.ToLower(filepath.Ext(name))] {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (l *Loader) loadFile(ctx context.Context, dir, path string) (Entry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	doc, err := frontmatter.Parse(src)
	if err != nil {
		return Entry{}, err
	}
	data, err := l.Validator(path).Validate(ctx, doc.Data)
	if err != nil {
		return Entry{}, err
	}

	id, err := filepath.Rel(dir, path)
	if err != nil {
		return Entry{}, err
	}
	id = strings.TrimSuffix(filepath.ToSlash(id), filepath.Ext(id))
	sum := sha256.Sum256(src)

	entry := Entry{
		ID:       id,
		Slug:     Slugify(id),
		Path:     l.relPath(path),
		Data:     data,
		Body:     doc.Body,
		Checksum: hex.EncodeToString(sum[:]),
	}
	if entry.Slug == "" {
		return Entry{}, fmt.Errorf("cannot derive a slug from %q", id)
	}
	logger := logging.WithFile("loader", entry.Path)
	logger.Debug().Str("slug", entry.Slug).Msg("validated")
	return entry, nil
}

// relPath returns path relative to the project root when possible.
func (l *Loader) relPath(path string) string {
	root, err := filepath.Abs(l.cfg.ProjectRoot)
	if err != nil {
		return filepath.ToSlash(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
