// Package optimizer defines the boundary with the framework's
// content-addressed cache optimizer. This side only announces digest
// inputs; lookup and deduplication happen on the framework side.
package optimizer

import (
	"slices"
	"sync"
)

// Optimizer accepts one cache announcement per compiled task.
type Optimizer interface {
	Register(cacheType, cacheName string, digest []string)
}

// Registration is one recorded announcement.
type Registration struct {
	Type   string
	Name   string
	Digest []string
}

// Recorder is the in-process Optimizer used at graph-construction time:
// it collects registrations for handoff alongside the emitted tasks.
// Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	regs []Registration
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Register implements Optimizer.
func (r *Recorder) Register(cacheType, cacheName string, digest []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs = append(r.regs, Registration{
		Type:   cacheType,
		Name:   cacheName,
		Digest: slices.Clone(digest),
	})
}

// Registrations returns a copy of everything recorded so far, in
// registration order.
func (r *Recorder) Registrations() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.regs)
}
