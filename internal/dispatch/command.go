package dispatch

import (
	"strings"
)

// Command is a fully built invocation. The device flag always sits
// directly after the tool token.
type Command struct {
	Tool   string
	Serial string
	Args   []string
}

// Argv returns the arguments passed to the tool, without the tool itself.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+2)
	if c.Serial != "" {
		argv = append(argv, "-s", c.Serial)
	}
	return append(argv, c.Args...)
}

// String renders the command for display. It is never fed to a shell.
func (c Command) String() string {
	parts := []string{c.Tool}
	for _, a := range c.Argv() {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\"'|;&$<>()*?") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
