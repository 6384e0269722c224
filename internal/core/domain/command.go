package domain

import "strings"

// Command is one process invocation planned for a target.
type Command struct {
	Args []string
	Dir  string
	// Env holds extra KEY=VALUE entries layered over the inherited environment.
	Env []string
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}
