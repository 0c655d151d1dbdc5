package schema

import (
	"context"
	"errors"
)

// ErrImageNotFound is returned by resolvers when a referenced image does not
// exist.
var ErrImageNotFound = errors.New("image not found")

// AssetRef is the build-time handle for a resolved local image.
type AssetRef struct {
	Src    string `json:"src"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// ImageResolver turns an image path from front-matter into an asset
// reference. Implementations are supplied by the host pipeline.
type ImageResolver interface {
	ResolveImage(ctx context.Context, path string) (AssetRef, error)
}

// ImageResolverFunc adapts a function to ImageResolver.
type ImageResolverFunc func(ctx context.Context, path string) (AssetRef, error)

func (f ImageResolverFunc) ResolveImage(ctx context.Context, path string) (AssetRef, error) {
	return f(ctx, path)
}
