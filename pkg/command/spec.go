package command

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Spec is a program and its argument tokens. It is never joined into a
// single string for execution; String is for display only.
type Spec struct {
	program string
	args    []string
}

// NewSpec copies args so later changes by the caller do not leak in.
func NewSpec(program string, args ...string) Spec {
	return Spec{
		program: program,
		args:    append([]string(nil), args...),
	}
}

// Program returns the executable name.
func (s Spec) Program() string {
	return s.program
}

// Args returns a copy of the argument tokens, without the program.
func (s Spec) Args() []string {
	return append([]string(nil), s.args...)
}

// Argv returns a copy of program followed by its arguments.
func (s Spec) Argv() []string {
	argv := make([]string, 0, len(s.args)+1)
	argv = append(argv, s.program)
	return append(argv, s.args...)
}

// IsZero reports whether s has no program.
func (s Spec) IsZero() bool {
	return s.program == ""
}

// String renders the command as a bash-quoted line so that every token
// boundary is visible to a human reader.
func (s Spec) String() string {
	argv := s.Argv()
	quoted := make([]string, 0, len(argv))
	for _, token := range argv {
		q, err := syntax.Quote(token, syntax.LangBash)
		if err != nil {
			q = strconv.Quote(token)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}
