// Package preload implements the call-rewriting logic applied to every
// exec-family call the LD_PRELOAD shared library (cmd/preload)
// intercepts (spec.md §4.1). It is kept free of cgo so it can be unit
// tested directly; cmd/preload wires it to the C trampolines the
// dynamic linker actually interposes over execve/execvpe/posix_spawn*.
package preload

import (
	"github.com/5c4lar/Bear/internal/envmerge"
	"github.com/5c4lar/Bear/internal/posixpath"
	"github.com/5c4lar/Bear/internal/session"
)

// Rewrite builds the supervisor argv that replaces the caller's
// original invocation: the supervisor re-execs resolvedPath with the
// original tail argv after reporting it, once it has applied whatever
// environment overlay the collector hands back. Grounded on
// Executor.cc's CommandBuilder::assemble.
func Rewrite(sess session.Session, resolvedPath string, tailArgv []string) []string {
	out := make([]string, 0, len(tailArgv)+6)
	out = append(out, sess.Reporter, "--destination", sess.Destination)
	if sess.Verbose {
		out = append(out, "--verbose")
	}
	out = append(out, "--execute", resolvedPath, "--")
	out = append(out, tailArgv...)
	return out
}

// ResolveExecvpe resolves file to an absolute, executable path the way
// execvpe/posix_spawnp would: via PATH when set, else the supplied
// confstr(_CS_PATH) fallback (spec.md §4.1, grounded on Executor.cc's
// PathResolver::from_path).
func ResolveExecvpe(file string, environment map[string]string, confstrPath string) (string, error) {
	envPath, hasPath := environment["PATH"]
	return posixpath.Resolve(file, envPath, hasPath, confstrPath, posixpath.OSStat)
}

// PropagateSelf folds the preload library's own path into envp's
// LD_PRELOAD list so that the rewritten child (and everything it execs
// in turn) keeps intercepting, using the front-insertion-unless-present
// merge rule (spec.md §4.1 "environment overlay").
func PropagateSelf(envp map[string]string, library string) map[string]string {
	return envmerge.Union(envp, map[string]string{"LD_PRELOAD": library})
}
