// Package fetch compiles validated fetch descriptors into executable
// task records with deterministic cache-digest inputs.
package fetch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/buildweld/fetchgraph/internal/job"
	"github.com/buildweld/fetchgraph/internal/keyfile"
)

const (
	// CacheType tags every cache announcement made for fetch tasks.
	// Bump the version suffix whenever digest semantics change.
	CacheType = "content.v1"

	fetchTool    = "/builds/worker/bin/fetch-content"
	artifactRoot = "/builds/worker/artifacts"
	gpgKeyEnv    = "FETCH_GPG_KEY"

	// archiveSuffix is the one archive conversion the fetch tool
	// supports; strip_components and add_prefix only make sense for it.
	archiveSuffix = ".tar.zst"
)

// InvalidOptionCombinationError reports an archive-only option used
// with an artifact name that is not an archive.
type InvalidOptionCombinationError struct {
	Field        string
	ArtifactName string
}

func (e *InvalidOptionCombinationError) Error() string {
	return fmt.Sprintf("%s requires an artifact name ending in %s, got %q", e.Field, archiveSuffix, e.ArtifactName)
}

// CompiledCommand is the executable form of one descriptor. CacheKey
// holds the ordered content-relevant values that determine the produced
// artifact's bytes; signature-verification parameters are deliberately
// excluded from it, since signatures add trust, not content identity.
type CompiledCommand struct {
	ArtifactName string
	Args         []string
	CacheKey     []string
	Env          map[string]string
}

// Compiler turns descriptors into commands. Its only collaborator is
// the key file reader; it holds no mutable state, so one Compiler may
// serve many descriptors concurrently.
type Compiler struct {
	keys keyfile.Reader
}

func NewCompiler(keys keyfile.Reader) *Compiler {
	return &Compiler{keys: keys}
}

// Compile maps one descriptor to its command. The only side effect is a
// single key file read, and only when a signature is configured. A
// failure here is terminal for this descriptor alone; siblings in a
// batch compile independently.
func (c *Compiler) Compile(d *job.Descriptor) (*CompiledCommand, error) {
	name := d.ResolvedArtifactName()

	if !strings.HasSuffix(name, archiveSuffix) {
		if d.StripComponents > 0 {
			return nil, &InvalidOptionCombinationError{Field: "strip_components", ArtifactName: name}
		}
		if d.AddPrefix != "" {
			return nil, &InvalidOptionCombinationError{Field: "add_prefix", ArtifactName: name}
		}
	}

	size := strconv.FormatInt(d.Size, 10)

	// The order here is part of the cache-key contract: reordering
	// changes every digest and invalidates all existing cache entries.
	// Do not change it without bumping CacheType.
	cacheKey := []string{d.SHA256, size}
	args := []string{
		fetchTool, "static-url",
		"--sha256", d.SHA256,
		"--size", size,
	}
	if d.StripComponents > 0 {
		strip := strconv.Itoa(d.StripComponents)
		cacheKey = append(cacheKey, strip)
		args = append(args, "--strip-components", strip)
	}
	if d.AddPrefix != "" {
		cacheKey = append(cacheKey, d.AddPrefix)
		args = append(args, "--add-prefix", d.AddPrefix)
	}

	env := make(map[string]string)

	if d.GPG != nil {
		sigURL := strings.ReplaceAll(d.GPG.SigURL, "{url}", d.URL)
		key, err := c.keys.ReadKey(d.GPG.KeyPath)
		if err != nil {
			return nil, err
		}
		env[gpgKeyEnv] = string(key)
		args = append(args, "--gpg-sig-url", sigURL, "--gpg-key-env", gpgKeyEnv)
	}

	args = append(args, d.URL, artifactRoot+"/"+name)

	return &CompiledCommand{
		ArtifactName: name,
		Args:         args,
		CacheKey:     cacheKey,
		Env:          env,
	}, nil
}
