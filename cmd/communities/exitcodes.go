package main

// Exit codes for the communities CLI (spec.md §6).
const (
	exitSuccess           = 0
	exitUnexpectedError   = 1
	exitUnknownInFormat   = 2
	exitMissingMembership = 3
	exitUnknownOutFormat  = 4
	exitDOTUnavailable    = 5
)
