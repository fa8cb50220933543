// Package job defines the typed fetch descriptor and the schema
// validation that turns a raw declaration into one.
package job

import (
	"maps"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind identifies a fetch variant. The set is closed: declarations using
// any other variant block are rejected during validation.
type Kind string

// KindStaticURL downloads a single remote file at a fixed URL.
const KindStaticURL Kind = "static_url"

// GPGSignature describes supplemental signature verification for a
// download. Verification itself happens in the worker that executes the
// compiled command, never at graph-construction time.
type GPGSignature struct {
	// SigURL is the location of the detached signature document. It may
	// contain the placeholder "{url}", substituted with the download URL.
	SigURL string

	// KeyPath locates the public key file, relative to the key root.
	KeyPath string
}

// Descriptor is a validated, fully-populated fetch request. It is
// immutable after validation: the compiler reads it, nothing writes it.
type Descriptor struct {
	Name        string
	Description string
	Kind        Kind

	URL    string
	SHA256 string
	Size   int64

	GPG *GPGSignature

	// ArtifactName is the explicit artifact name, empty when the
	// declaration left it to default from the URL.
	ArtifactName string

	StripComponents int
	AddPrefix       string

	// ManifestName records which signing-manifest entry produced this
	// descriptor. Empty for jobs declared with a literal url.
	ManifestName string
}

// ResolvedArtifactName returns the artifact name the task will publish:
// the explicit name when given, otherwise the final path segment of the
// URL.
func (d *Descriptor) ResolvedArtifactName() string {
	if d.ArtifactName != "" {
		return d.ArtifactName
	}
	segments := strings.Split(d.URL, "/")
	return segments[len(segments)-1]
}

// RawJob is one fetch declaration as parsed from a job file, before any
// schema validation. Attribute values stay as cty values so the
// validator owns all type checking and can report every violation in
// one pass.
type RawJob struct {
	Name        string
	Description string

	// Kind is the variant block type found in the declaration, empty
	// when the declaration carries no variant block at all.
	Kind string

	// Attrs holds the variant block's attributes.
	Attrs map[string]cty.Value

	// GPG holds the attributes of the nested gpg_signature block, nil
	// when the block is absent.
	GPG map[string]cty.Value

	// ManifestName is set during manifest expansion and stays empty for
	// literal-url declarations. It is provenance, not schema: the
	// validator passes it through untouched.
	ManifestName string

	// Source is the file the declaration came from.
	Source string
}

// HasURL reports whether the declaration carries a literal url and
// therefore bypasses manifest expansion.
func (r *RawJob) HasURL() bool {
	v, ok := r.Attrs["url"]
	return ok && !v.IsNull()
}

// Clone returns a deep copy. Manifest expansion overlays entries onto
// copies so the template is never mutated.
func (r *RawJob) Clone() *RawJob {
	out := *r
	out.Attrs = maps.Clone(r.Attrs)
	out.GPG = maps.Clone(r.GPG)
	return &out
}
