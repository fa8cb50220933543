package fetch

import (
	"strings"

	"github.com/buildweld/fetchgraph/internal/job"
	"github.com/buildweld/fetchgraph/internal/optimizer"
)

// LevelTrusted is the highest trust level. Tasks built at this level
// are idempotent, immutable, and trusted, so their artifacts are kept
// effectively forever.
const LevelTrusted = "3"

// Expiry vocabulary of the consuming framework.
const (
	ExpiresPermanent = "1000 years"
	ExpiresBounded   = "28 days"
)

const (
	dockerImage     = "fetch"
	maxRunTime      = 900
	artifactDirName = "adhoc"
	artifactNS      = "releng/adhoc"
)

// Params carries the graph-construction context the framework supplies.
type Params struct {
	// Level is the trust level, controlling artifact retention.
	Level string

	// Kind prefixes task labels and is stripped back off to derive the
	// cache name.
	Kind string

	// Fast skips optimizer registration entirely, for local graph
	// generation where cache lookups would only slow things down.
	Fast bool
}

// Artifact declares one task output for the worker.
type Artifact struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Worker is the fixed resource shape fetch tasks run under.
type Worker struct {
	ChainOfTrust bool   `json:"chain-of-trust"`
	DockerImage  string `json:"docker-image"`
	MaxRunTime   int    `json:"max-run-time"`
}

// CacheEntry is the digest announcement attached to a task for the
// framework's optimizer to consult.
type CacheEntry struct {
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Digest []string `json:"digest"`
}

// TaskRecord is the envelope handed to the external scheduler, emitted
// in the scheduler's kebab-case vocabulary. Once emitted it is owned
// entirely by the caller; nothing here revisits it.
type TaskRecord struct {
	Label         string            `json:"label"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	ExpiresAfter  string            `json:"expires-after"`
	RunOnProjects []string          `json:"run-on-projects"`
	Command       []string          `json:"command"`
	Env           map[string]string `json:"env,omitempty"`
	Worker        Worker            `json:"worker"`
	Artifacts     []Artifact        `json:"artifacts"`
	Attributes    map[string]string `json:"attributes"`
	Routes        []string          `json:"routes,omitempty"`
	Cache         *CacheEntry       `json:"cache,omitempty"`
}

// Assembler wraps compiled commands into task records and announces
// their digests to the cache optimizer.
type Assembler struct {
	opt optimizer.Optimizer
}

func NewAssembler(opt optimizer.Optimizer) *Assembler {
	return &Assembler{opt: opt}
}

// Assemble builds the task record for one compiled descriptor. Fetch
// execution failures are the worker runtime's problem; no retry or
// recovery policy lives here.
func (a *Assembler) Assemble(d *job.Descriptor, cmd *CompiledCommand, params Params) *TaskRecord {
	expires := ExpiresBounded
	if params.Level == LevelTrusted {
		expires = ExpiresPermanent
	}

	label := params.Kind + "-" + d.Name

	task := &TaskRecord{
		Label:         label,
		Name:          d.Name,
		Description:   d.Description,
		ExpiresAfter:  expires,
		RunOnProjects: []string{},
		Command:       cmd.Args,
		Env:           cmd.Env,
		Worker: Worker{
			ChainOfTrust: true,
			DockerImage:  dockerImage,
			MaxRunTime:   maxRunTime,
		},
		Artifacts: []Artifact{{
			Type: "directory",
			Name: artifactDirName,
			Path: artifactRoot,
		}},
		Attributes: map[string]string{
			"fetch-artifact": artifactNS + "/" + cmd.ArtifactName,
		},
	}

	if !params.Fast {
		cacheName := strings.TrimPrefix(label, params.Kind+"-")
		digest := DigestData(cmd)
		task.Cache = &CacheEntry{Type: CacheType, Name: cacheName, Digest: digest}
		a.opt.Register(CacheType, cacheName, digest)
	}

	return task
}
