// Package posixpath implements the POSIX path-resolution semantics the
// preload agent needs for execvpe/execvP and their posix_spawn
// analogues (spec.md §4.1), independent of any particular exec hook so
// it can be unit tested without actually exec'ing anything.
package posixpath

import (
	"errors"
	"os"
	"strings"
)

// ErrNotFound means no candidate in the search path existed at all.
var ErrNotFound = errors.New("posixpath: no such file")

// ErrNotExecutable means a candidate existed but failed the
// executable-bit check.
var ErrNotExecutable = errors.New("posixpath: found but not executable")

// Stat reports whether path exists and, if so, whether it is
// executable, mirroring what a caller would learn by stat(2)-ing a
// candidate and checking its mode bits. The production implementation
// is OSStat; tests supply a fake to avoid touching the real filesystem.
type Stat func(path string) (exists, executable bool)

// OSStat is the real-filesystem Stat, mirroring access(path, X_OK).
func OSStat(path string) (exists, executable bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	if info.IsDir() {
		return true, false
	}
	return true, info.Mode().Perm()&0o111 != 0
}

// Resolve implements the three-step algorithm from spec.md §4.1:
//  1. if file contains '/', treat it as a path directly;
//  2. otherwise walk envPath (falling back to confstrPath when envPath
//     is unset), skipping empty entries;
//  3. ENOENT if nothing matches, EACCES-shaped error if a match exists
//     but isn't executable.
//
// hasPathVar distinguishes "PATH is set to empty string" from "PATH is
// unset", since only the latter falls back to confstrPath.
func Resolve(file string, envPath string, hasPathVar bool, confstrPath string, stat Stat) (string, error) {
	if stat == nil {
		stat = OSStat
	}
	if strings.ContainsRune(file, '/') {
		exists, executable := stat(file)
		switch {
		case executable:
			return file, nil
		case exists:
			return "", ErrNotExecutable
		default:
			return "", ErrNotFound
		}
	}

	searchList := envPath
	if !hasPathVar {
		searchList = confstrPath
	}

	foundNonExecutable := false
	for _, dir := range strings.Split(searchList, ":") {
		if dir == "" {
			continue
		}
		candidate := dir + "/" + file
		exists, executable := stat(candidate)
		if executable {
			return candidate, nil
		}
		if exists {
			foundNonExecutable = true
		}
	}

	if foundNonExecutable {
		return "", ErrNotExecutable
	}
	return "", ErrNotFound
}
