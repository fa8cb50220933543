// Package hclcfg loads fetch job declarations and signing manifests
// from HCL files.
//
// Job files are parsed generically: attribute values stay as cty values
// and all schema enforcement happens downstream in the job validator,
// which reports every violation at once. Only structural problems
// (syntax errors, duplicate variant blocks, unknown top-level blocks)
// are rejected here, as HCL diagnostics.
package hclcfg

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/buildweld/fetchgraph/internal/ctxlog"
	"github.com/buildweld/fetchgraph/internal/fsutil"
	"github.com/buildweld/fetchgraph/internal/job"
	"github.com/buildweld/fetchgraph/internal/manifest"
)

const fileExtension = ".hcl"

// Loader parses job and manifest files.
type Loader struct {
	parser *hclparse.Parser
}

func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// LoadJobs reads every fetch declaration under path (a single .hcl file
// or a directory tree of them). Declarations come back in file order
// within sorted file paths, so batches are reproducible.
func (l *Loader) LoadJobs(ctx context.Context, path string) ([]*job.RawJob, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, fileExtension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loading job files.", "path", path, "count", len(files))

	var jobs []*job.RawJob
	var diags hcl.Diagnostics

	for _, file := range files {
		body, fileDiags := l.parseFile(file)
		diags = append(diags, fileDiags...)
		if fileDiags.HasErrors() {
			continue
		}

		for _, block := range body.Blocks {
			switch block.Type {
			case "fetch":
				raw, jobDiags := decodeJob(block, file)
				diags = append(diags, jobDiags...)
				if !jobDiags.HasErrors() {
					jobs = append(jobs, raw)
				}
			default:
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unsupported block",
					Detail:   "Job files may only contain \"fetch\" blocks.",
					Subject:  &block.TypeRange,
				})
			}
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return jobs, nil
}

// LoadManifests reads every manifest record under path, preserving file
// and block order.
func (l *Loader) LoadManifests(ctx context.Context, path string) ([]manifest.Manifest, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, fileExtension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loading manifest files.", "path", path, "count", len(files))

	var out []manifest.Manifest
	var diags hcl.Diagnostics

	for _, file := range files {
		hclFile, fileDiags := l.parser.ParseHCLFile(file)
		diags = append(diags, fileDiags...)
		if fileDiags.HasErrors() {
			continue
		}

		var mf manifestFile
		diags = append(diags, gohcl.DecodeBody(hclFile.Body, nil, &mf)...)

		for _, m := range mf.Manifests {
			entry := manifest.Manifest{
				Name:         m.Name,
				URL:          m.URL,
				SHA256:       m.SHA256,
				Filesize:     m.Filesize,
				ArtifactName: m.ArtifactName,
			}
			if m.GPG != nil {
				entry.GPG = &job.GPGSignature{
					SigURL:  m.GPG.SigURL,
					KeyPath: m.GPG.KeyPath,
				}
			}
			out = append(out, entry)
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return out, nil
}

func (l *Loader) parseFile(file string) (*hclsyntax.Body, hcl.Diagnostics) {
	hclFile, diags := l.parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return nil, diags
	}
	body, ok := hclFile.Body.(*hclsyntax.Body)
	if !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported file format",
			Detail:   "Job files must be native HCL syntax.",
		}}
	}
	return body, diags
}

// decodeJob turns one fetch block into a raw job. The variant block may
// be of any type; deciding whether the kind is supported belongs to the
// validator, not the parser.
func decodeJob(block *hclsyntax.Block, file string) (*job.RawJob, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	if len(block.Labels) != 1 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid fetch block",
			Detail:   "A fetch block requires exactly one label, the job name.",
			Subject:  &block.TypeRange,
		})
		return nil, diags
	}

	raw := &job.RawJob{Name: block.Labels[0], Source: file}

	for name, attr := range block.Body.Attributes {
		switch name {
		case "description":
			val, valDiags := attr.Expr.Value(nil)
			diags = append(diags, valDiags...)
			if !valDiags.HasErrors() {
				conv, err := convertToString(val)
				if err != nil {
					diags = append(diags, &hcl.Diagnostic{
						Severity: hcl.DiagError,
						Summary:  "Invalid description",
						Detail:   "The description attribute must be a string.",
						Subject:  &attr.SrcRange,
					})
					continue
				}
				raw.Description = conv
			}
		default:
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported attribute",
				Detail:   "Only \"description\" may be set directly on a fetch block.",
				Subject:  &attr.SrcRange,
			})
		}
	}

	for _, variant := range block.Body.Blocks {
		if raw.Kind != "" {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate fetch variant",
				Detail:   "A fetch block may contain only one variant block.",
				Subject:  &variant.TypeRange,
			})
			continue
		}
		raw.Kind = variant.Type

		var attrDiags hcl.Diagnostics
		raw.Attrs, attrDiags = attrValues(variant.Body.Attributes)
		diags = append(diags, attrDiags...)

		for _, nested := range variant.Body.Blocks {
			switch nested.Type {
			case "gpg_signature":
				if raw.GPG != nil {
					diags = append(diags, &hcl.Diagnostic{
						Severity: hcl.DiagError,
						Summary:  "Duplicate \"gpg_signature\" block",
						Detail:   "Only one \"gpg_signature\" block is allowed.",
						Subject:  &nested.TypeRange,
					})
					continue
				}
				var gpgDiags hcl.Diagnostics
				raw.GPG, gpgDiags = attrValues(nested.Body.Attributes)
				diags = append(diags, gpgDiags...)
			default:
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unsupported block",
					Detail:   "The only block allowed inside a fetch variant is \"gpg_signature\".",
					Subject:  &nested.TypeRange,
				})
			}
		}
	}

	return raw, diags
}

func attrValues(attrs hclsyntax.Attributes) (map[string]cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if !valDiags.HasErrors() {
			out[name] = val
		}
	}
	return out, diags
}

func convertToString(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", nil
	}
	conv, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	return conv.AsString(), nil
}
