package artifact

import (
	"fmt"

	"github.com/hupe1980/agentlab/core"
)

var (
	// ErrNotFound is returned when an artifact (or the requested version)
	// does not exist in the underlying store. It matches core.ErrNotFound.
	ErrNotFound = fmt.Errorf("artifact %w", core.ErrNotFound)

	// ErrUnsupportedPart is returned when a store can not persist a part type.
	ErrUnsupportedPart = fmt.Errorf("unsupported artifact part")
)
