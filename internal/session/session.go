// Package session implements the preload agent's narrow environment
// contract (spec.md §4.1): the four variables it reads on first use,
// and the validity rule that governs whether hooks rewrite a call
// through the supervisor. This is deliberately distinct from internal/buildconfig, which
// is the operator-facing collector configuration — see SPEC_FULL.md
// Open Question 1.
package session

import "errors"

// Prefix is the installation-specific key prefix spec.md §6 alludes
// to; the four variables below are read under this prefix so a bare
// "LIBRARY"/"REPORTER" in a build's own environment never collides
// with the agent's session.
const Prefix = "INTERCEPT_"

// Keys of the four session variables, without the prefix.
const (
	KeyLibrary     = "LIBRARY"
	KeyReporter    = "REPORTER"
	KeyDestination = "DESTINATION"
	KeyVerbose     = "VERBOSE"
)

// Session is the agent's per-process scratch copy of its environment
// contract, captured once so that a caller clearing its own
// environment afterward cannot destroy it.
type Session struct {
	Library     string
	Reporter    string
	Destination string
	Verbose     bool
}

// ErrInvalid is returned by Load when the session is not valid: one of
// Library/Reporter/Destination is missing or empty. cmd/preload then
// leaves every hooked call unrewritten: shim.c calls the real libc
// function with the caller's own arguments. No EIO is reported.
var ErrInvalid = errors.New("session: missing or empty required variable")

// Load reads the four session variables out of an environment map
// (typically envmerge.FromList(os.Environ())) and validates them.
func Load(env map[string]string) (Session, error) {
	s := Session{
		Library:     env[Prefix+KeyLibrary],
		Reporter:    env[Prefix+KeyReporter],
		Destination: env[Prefix+KeyDestination],
		Verbose:     env[Prefix+KeyVerbose] == "true" || env[Prefix+KeyVerbose] == "1",
	}
	if !s.Valid() {
		return Session{}, ErrInvalid
	}
	return s, nil
}

// Valid reports whether the session carries everything the preload
// hooks need to rewrite a call through the supervisor.
func (s Session) Valid() bool {
	return s.Library != "" && s.Reporter != "" && s.Destination != ""
}

// Overlay renders the session as the environment variables a child
// process needs to keep interception going, keyed with Prefix.
func (s Session) Overlay() map[string]string {
	verbose := ""
	if s.Verbose {
		verbose = "true"
	}
	return map[string]string{
		Prefix + KeyLibrary:     s.Library,
		Prefix + KeyReporter:    s.Reporter,
		Prefix + KeyDestination: s.Destination,
		Prefix + KeyVerbose:     verbose,
	}
}
