package quality

import "github.com/novagraph/communities/internal/apperrors"

// ErrMissingMembership is returned by Evaluate in strict mode when a
// graph node has no entry in the supplied membership mapping.
var ErrMissingMembership = apperrors.ErrMissingMembership
