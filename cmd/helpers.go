package cmd

import (
	"fmt"
	"strings"
)

// splitProject parses an "owner/repo" argument.
func splitProject(arg string) (owner, repo string, err error) {
	parts := strings.SplitN(arg, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid project format: expected owner/repo, got %q", arg)
	}
	return parts[0], parts[1], nil
}
