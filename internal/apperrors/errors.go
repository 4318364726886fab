// Package apperrors defines the error kinds shared across the engine's
// boundary (spec.md §7): InputError, MissingMembership, and
// UnknownOption. Package-specific sentinels wrap one of these so
// callers can classify a failure with errors.Is without caring which
// package raised it.
package apperrors

import "errors"

var (
	// ErrInput covers malformed input: empty layer lists, mismatched
	// multilayer node sets, unknown node references, malformed graph
	// data.
	ErrInput = errors.New("input error")

	// ErrMissingMembership is MissingMembership: strict quality
	// evaluation against a membership map missing a node's entry.
	ErrMissingMembership = errors.New("missing membership")

	// ErrUnknownOption is UnknownOption: a CLI input, output or
	// membership format the CLI does not recognize. Library option
	// values rejected by Options.Validate are ErrInput instead.
	ErrUnknownOption = errors.New("unknown option")
)

// IsMissingMembership reports whether err is or wraps ErrMissingMembership.
func IsMissingMembership(err error) bool { return errors.Is(err, ErrMissingMembership) }

// IsUnknownOption reports whether err is or wraps ErrUnknownOption.
func IsUnknownOption(err error) bool { return errors.Is(err, ErrUnknownOption) }
