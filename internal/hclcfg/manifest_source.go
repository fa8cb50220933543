package hclcfg

import (
	"context"

	"github.com/buildweld/fetchgraph/internal/manifest"
)

// ManifestFiles is the file-backed manifest.Source: it reads signing
// manifests from .hcl files under a fixed path.
type ManifestFiles struct {
	loader *Loader
	path   string
}

func NewManifestFiles(loader *Loader, path string) *ManifestFiles {
	return &ManifestFiles{loader: loader, path: path}
}

// Manifests implements manifest.Source.
func (s *ManifestFiles) Manifests(ctx context.Context) ([]manifest.Manifest, error) {
	return s.loader.LoadManifests(ctx, s.path)
}
