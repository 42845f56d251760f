// Package deps reports whether the external executables captionary can use
// are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement describes an executable looked up on PATH.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// Disabled marks a requirement switched off in the configuration; it is
	// reported but never looked up.
	Disabled bool
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Satisfied reports whether the status should count as healthy: available,
// optional, or disabled.
func (s Status) Satisfied() bool {
	return s.Available || s.Optional || s.Disabled
}

var lookPath = exec.LookPath

// Check resolves a single requirement.
func Check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	switch {
	case req.Disabled:
		status.Detail = "disabled in configuration"
	case req.Command == "":
		status.Detail = "command not configured"
	default:
		path, err := lookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			break
		}
		status.Available = true
		status.Path = path
	}
	return status
}

// CheckAll resolves requirements in order.
func CheckAll(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Check(req))
	}
	return results
}
