package telemetry

import (
	"time"
)

// MsgTargetStart indicates a target span has started.
type MsgTargetStart struct {
	SpanID    string
	Name      string
	StartTime time.Time
}

// MsgTargetComplete indicates a target span has finished.
type MsgTargetComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
	Skipped bool
}

// MsgTargetLog carries a chunk of process output for a target.
type MsgTargetLog struct {
	SpanID string
	Data   []byte
}

// MsgInitTargets initializes or resets the target list of an interactive view.
type MsgInitTargets struct {
	Targets      []string
	Dependencies map[string][]string
}
