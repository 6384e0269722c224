package shell

import (
	"context"
	"os"
	"strconv"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/internal/core/ports"
)

// NodeID is the unique identifier for the executor Graft node.
const NodeID graft.ID = "adapter.executor"

// TailSizeEnv overrides DefaultTailSize, in bytes.
const TailSizeEnv = "ANVIL_OUTPUT_TAIL"

func init() {
	graft.Register(graft.Node[ports.Executor]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Executor, error) {
			return NewExecutor(optionsFromEnv(os.Getenv)...), nil
		},
	})
}

func optionsFromEnv(getenv func(string) string) []Option {
	n, err := strconv.Atoi(getenv(TailSizeEnv))
	if err != nil {
		return nil
	}
	return []Option{WithTailSize(n)}
}
