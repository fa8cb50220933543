// Package manifest models externally resolved download manifests and
// the fan-out of a template job over them.
package manifest

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/buildweld/fetchgraph/internal/job"
)

// Manifest is one externally resolved download record. It is read-only
// input: expansion copies from it, nothing writes to it.
type Manifest struct {
	// Name identifies the entry on the signing index. The routes a
	// promoted task lands on are keyed by it.
	Name string

	URL      string
	SHA256   string
	Filesize int64

	// ArtifactName and GPG are optional per-entry overrides, applied to
	// the expanded job only when present.
	ArtifactName string
	GPG          *job.GPGSignature
}

// Source supplies the resolved manifest sequence. Implementations must
// return entries in a stable order; the task graph built from them has
// to be reproducible.
type Source interface {
	Manifests(ctx context.Context) ([]Manifest, error)
}

// Expand produces one raw job per manifest entry by overlaying the
// entry onto a copy of the template. Output order follows manifest
// order. The url, sha256, and size attributes are always overlaid;
// artifact_name and gpg_signature only when the entry carries them.
// Each expanded job records the entry's name as its manifest
// provenance.
func Expand(template *job.RawJob, manifests []Manifest) []*job.RawJob {
	out := make([]*job.RawJob, 0, len(manifests))
	for _, m := range manifests {
		r := template.Clone()
		r.ManifestName = m.Name
		if r.Attrs == nil {
			r.Attrs = make(map[string]cty.Value)
		}
		r.Attrs["url"] = cty.StringVal(m.URL)
		r.Attrs["sha256"] = cty.StringVal(m.SHA256)
		r.Attrs["size"] = cty.NumberIntVal(m.Filesize)
		if m.ArtifactName != "" {
			r.Attrs["artifact_name"] = cty.StringVal(m.ArtifactName)
		}
		if m.GPG != nil {
			r.GPG = map[string]cty.Value{
				"sig_url":  cty.StringVal(m.GPG.SigURL),
				"key_path": cty.StringVal(m.GPG.KeyPath),
			}
		}
		out = append(out, r)
	}
	return out
}
