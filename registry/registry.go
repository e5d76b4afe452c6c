// Package registry holds the named tasks available to workflow compilation
// and to the local graph engine.
package registry

import (
	"fmt"
	"sort"

	"github.com/YmirKhang/flytekit/task"
)

// Registry maps task names to their registered runtime primitives for a
// single application instance.
type Registry struct {
	tasks map[string]*task.Task
}

// New creates and initializes an empty Registry.
func New() *Registry {
	return &Registry{tasks: make(map[string]*task.Task)}
}

// Register adds a task under its declared name. Registering the same name
// twice is a programming error.
func (r *Registry) Register(t *task.Task) {
	if _, exists := r.tasks[t.Name()]; exists {
		panic(fmt.Sprintf("task with name '%s' already registered", t.Name()))
	}
	r.tasks[t.Name()] = t
}

// Task looks up a registered task by name.
func (r *Registry) Task(name string) (*task.Task, bool) {
	t, ok := r.tasks[name]
	return t, ok
}

// Names returns the registered task names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
