package identifier

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single identifier part, e.g. a project or version.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Parse creates an Identifier by parsing its canonical string representation.
func Parse(raw string) (Identifier, error) {
	if raw == "" {
		return Identifier{}, fmt.Errorf("identifier cannot be empty")
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 5 {
		return Identifier{}, fmt.Errorf("identifier must have 5 colon-separated parts, got %d in %q", len(parts), raw)
	}

	id := Identifier{
		Resource: ResourceType(parts[0]),
		Project:  parts[1],
		Domain:   parts[2],
		Name:     parts[3],
		Version:  parts[4],
	}
	if err := id.Validate(); err != nil {
		return Identifier{}, fmt.Errorf("parsing identifier %q: %w", raw, err)
	}
	return id, nil
}
