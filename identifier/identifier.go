// Package identifier models the opaque key that names a registered task or
// workflow: resource type, project, domain, name and version. The rest of the
// SDK treats it as an opaque value; only this package knows its canonical
// string form.
package identifier

import (
	"fmt"
	"strings"
)

// ResourceType distinguishes the kind of entity an Identifier names.
type ResourceType string

const (
	ResourceTask       ResourceType = "task"
	ResourceWorkflow   ResourceType = "workflow"
	ResourceLaunchPlan ResourceType = "launch_plan"
)

// valid reports whether the resource type is one of the known kinds.
func (rt ResourceType) valid() bool {
	switch rt {
	case ResourceTask, ResourceWorkflow, ResourceLaunchPlan:
		return true
	}
	return false
}

// Identifier uniquely names a task or workflow across projects and domains.
type Identifier struct {
	Resource ResourceType
	Project  string
	Domain   string
	Name     string
	Version  string
}

// New constructs an Identifier from its five parts.
func New(resource ResourceType, project, domain, name, version string) Identifier {
	return Identifier{
		Resource: resource,
		Project:  project,
		Domain:   domain,
		Name:     name,
		Version:  version,
	}
}

// String serializes the Identifier into its canonical colon-separated form,
// e.g. "workflow:flytesnacks:development:my.wf:v1".
func (id Identifier) String() string {
	return strings.Join([]string{string(id.Resource), id.Project, id.Domain, id.Name, id.Version}, ":")
}

// Equal checks for equality between two Identifiers.
func (id Identifier) Equal(other Identifier) bool {
	return id == other
}

// Empty reports whether the identifier carries no information at all.
func (id Identifier) Empty() bool {
	return id == Identifier{}
}

// Validate checks that every part of the identifier is present and well formed.
func (id Identifier) Validate() error {
	if !id.Resource.valid() {
		return fmt.Errorf("unknown resource type %q", id.Resource)
	}
	for _, part := range []struct {
		label string
		value string
	}{
		{"project", id.Project},
		{"domain", id.Domain},
		{"name", id.Name},
		{"version", id.Version},
	} {
		if part.value == "" {
			return fmt.Errorf("identifier %s cannot be empty", part.label)
		}
		if !segmentRegex.MatchString(part.value) {
			return fmt.Errorf("invalid identifier %s: %q", part.label, part.value)
		}
	}
	return nil
}
