// Package target selects which tasks of a full task graph run for a
// named pipeline phase. The graph itself is built and owned by the
// external framework; this package only filters its labels.
package target

import "fmt"

// Task is the per-node view the framework exposes to target filters.
type Task struct {
	Label      string
	Attributes map[string]string
}

// Graph is an ordered, read-only view of the full task graph. Ordering
// matters: filters must produce the same label sequence on every run.
type Graph struct {
	tasks []Task
}

func NewGraph(tasks ...Task) *Graph {
	return &Graph{tasks: tasks}
}

// Tasks returns the graph's tasks in insertion order.
func (g *Graph) Tasks() []Task {
	return g.tasks
}

// Parameters are the framework-supplied graph parameters.
type Parameters map[string]string

// Func selects the labels to schedule for one target.
type Func func(g *Graph, params Parameters) []string

var registry = make(map[string]Func)

// Register adds a named target filter. Registering the same name twice
// is a programmer error.
func Register(name string, fn Func) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("target: duplicate registration of %q", name))
	}
	registry[name] = fn
}

// Get looks up a registered target filter by name.
func Get(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

func init() {
	Register("promote_adhoc", promoteAdhoc)
}

// promoteAdhoc selects the set of tasks required for promoting adhoc
// signing: everything in the build or promote shipping phase.
func promoteAdhoc(g *Graph, _ Parameters) []string {
	var labels []string
	for _, t := range g.Tasks() {
		switch t.Attributes["shipping-phase"] {
		case "build", "promote":
			labels = append(labels, t.Label)
		}
	}
	return labels
}
