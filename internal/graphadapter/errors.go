package graphadapter

import (
	"fmt"

	"github.com/novagraph/communities/internal/apperrors"
)

// ErrUnknownNode is returned when a caller-supplied node order references
// an identifier that has no corresponding node or edge endpoint in the
// graph being built (spec.md §4.1), and when a node or edge endpoint is
// missing from that order. It is an apperrors.ErrInput.
var ErrUnknownNode = fmt.Errorf("%w: node order references unknown node id", apperrors.ErrInput)
