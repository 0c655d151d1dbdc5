package pubcontent

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/eringen/pubcontent/schema"
)

const (
	publicSubdir = "public"
	srcSubdir    = "src"
)

// FileImageResolver resolves front-matter image paths to files inside a
// project directory. Results are memoised by absolute path, so a resolver
// should be discarded when assets change.
type FileImageResolver struct {
	root     string
	realRoot string   // root with symlinks evaluated
	cache    sync.Map // absolute path -> resolvedImage
}

type resolvedImage struct {
	ref schema.AssetRef
	err error
}

// NewFileImageResolver returns a resolver rooted at the project directory root.
func NewFileImageResolver(root string) (*FileImageResolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		real = abs
	}
	return &FileImageResolver{root: abs, realRoot: real}, nil
}

// ForFile returns a resolver for images referenced by the content file at
// path. Relative references are resolved against the file's directory.
func (r *FileImageResolver) ForFile(path string) schema.ImageResolver {
	return r.ForDir(filepath.Dir(path))
}

// ForDir returns a resolver that resolves relative references against dir.
// A relative dir is taken relative to the project root.
func (r *FileImageResolver) ForDir(dir string) schema.ImageResolver {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.root, dir)
	}
	return schema.ImageResolverFunc(func(ctx context.Context, ref string) (schema.AssetRef, error) {
		return r.resolve(ctx, dir, ref)
	})
}

func (r *FileImageResolver) resolve(ctx context.Context, dir, ref string) (schema.AssetRef, error) {
	if err := ctx.Err(); err != nil {
		return schema.AssetRef{}, err
	}
	abs, err := r.locate(dir, strings.TrimSpace(ref))
	if err != nil {
		return schema.AssetRef{}, err
	}
	if cached, ok := r.cache.Load(abs); ok {
		res := cached.(resolvedImage)
		return res.ref, res.err
	}
	asset, err := r.inspect(abs)
	r.cache.Store(abs, resolvedImage{ref: asset, err: err})
	return asset, err
}

// locate maps a reference to an absolute path inside the project root.
// "/x" is served from public/, "~/x" from src/, anything else is relative
// to dir.
func (r *FileImageResolver) locate(dir, ref string) (string, error) {
	switch {
	case ref == "":
		return "", fmt.Errorf("empty image path: %w", schema.ErrImageNotFound)
	case strings.Contains(ref, "://"), strings.HasPrefix(ref, "//"), strings.HasPrefix(ref, "data:"):
		return "", errors.New("remote images are not supported")
	}

	var abs string
	switch {
	case strings.HasPrefix(ref, "~/"):
		abs = filepath.Join(r.root, srcSubdir, filepath.FromSlash(ref[2:]))
	case strings.HasPrefix(ref, "/"):
		abs = filepath.Join(r.root, publicSubdir, filepath.FromSlash(ref[1:]))
	default:
		abs = filepath.Join(dir, filepath.FromSlash(ref))
	}

	if !within(r.root, abs) {
		return "", fmt.Errorf("image path %q is outside the project", ref)
	}
	// A symlink inside the project may still point out of it. Missing files
	// fall through to the not-found handling in inspect.
	if real, err := filepath.EvalSymlinks(abs); err == nil && !within(r.realRoot, real) {
		return "", fmt.Errorf("image path %q is outside the project", ref)
	}
	return abs, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (r *FileImageResolver) inspect(abs string) (schema.AssetRef, error) {
	rel, _ := filepath.Rel(r.root, abs)
	src := filepath.ToSlash(rel)

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return schema.AssetRef{}, fmt.Errorf("%s: %w", src, schema.ErrImageNotFound)
		}
		return schema.AssetRef{}, err
	}
	if info.IsDir() {
		return schema.AssetRef{}, fmt.Errorf("%s is a directory: %w", src, schema.ErrImageNotFound)
	}

	f, err := os.Open(abs)
	if err != nil {
		return schema.AssetRef{}, err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return schema.AssetRef{}, fmt.Errorf("detect type of %s: %w", src, err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return schema.AssetRef{}, fmt.Errorf("%s is %s, not an image", src, mtype.String())
	}

	ref := schema.AssetRef{
		Src:    src,
		Format: strings.TrimPrefix(mtype.Extension(), "."),
	}
	if mtype.Is("image/svg+xml") {
		return ref, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return schema.AssetRef{}, err
	}
	cfg, format, err := image.DecodeConfig(f)
	switch {
	case errors.Is(err, image.ErrFormat):
		// No registered decoder (e.g. AVIF); keep the asset without dimensions.
		return ref, nil
	case err != nil:
		return schema.AssetRef{}, fmt.Errorf("decode %s: %w", src, err)
	}
	ref.Width = cfg.Width
	ref.Height = cfg.Height
	ref.Format = format
	return ref, nil
}
