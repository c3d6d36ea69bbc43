package hierarchy

import "fmt"

// MalformedHierarchyError reports a node that is neither a valid leaf nor a
// valid internal node. Path is the ancestor-qualified path of the node.
type MalformedHierarchyError struct {
	Path   string
	Reason string
}

func (e *MalformedHierarchyError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed hierarchy: %s", e.Reason)
	}
	return fmt.Sprintf("malformed hierarchy at %s: %s", e.Path, e.Reason)
}

func malformed(path, format string, args ...any) error {
	return &MalformedHierarchyError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
