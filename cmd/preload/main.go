// Command preload builds the LD_PRELOAD shared library used to
// intercept the exec family of calls (spec.md §4.1):
//
//	go build -buildmode=c-shared -o libpreload.so ./cmd/preload
//
// The exported bear_rewrite_* functions are called from shim.c's
// execve/execvpe/posix_spawn/posix_spawnp trampolines, which are the
// symbols the dynamic linker actually interposes over libc's. Keeping
// the rewriting logic in internal/preload means this file is nothing
// more than a C-string marshaling boundary.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"os"
	"unsafe"

	"github.com/5c4lar/Bear/internal/envmerge"
	"github.com/5c4lar/Bear/internal/preload"
	"github.com/5c4lar/Bear/internal/session"
)

// main is required for -buildmode=c-shared but never runs; the shared
// object has no entry point of its own, only exported symbols.
func main() {}

var (
	activeSession session.Session
	sessionValid  bool
)

func init() {
	env := envmerge.FromList(os.Environ())
	sess, err := session.Load(env)
	activeSession, sessionValid = sess, err == nil
}

// cStringSlice reads a NULL-terminated C string array into a Go slice.
func cStringSlice(argv **C.char) []string {
	if argv == nil {
		return nil
	}
	ptr := (*[1 << 20]*C.char)(unsafe.Pointer(argv))
	var out []string
	for i := 0; ptr[i] != nil; i++ {
		out = append(out, C.GoString(ptr[i]))
	}
	return out
}

// newCArgv allocates a NULL-terminated C string array from args. The
// caller (shim.c) owns the result and is expected to pass it straight
// into execve/posix_spawn without freeing it: the process image is
// about to be replaced, or the helper process is short-lived.
func newCArgv(args []string) **C.char {
	size := C.size_t(len(args)+1) * C.size_t(unsafe.Sizeof(uintptr(0)))
	base := C.malloc(size)
	out := (*[1 << 20]*C.char)(base)[: len(args)+1 : len(args)+1]
	for i, a := range args {
		out[i] = C.CString(a)
	}
	out[len(args)] = nil
	return (**C.char)(base)
}

func envFromC(envp **C.char) map[string]string {
	return envmerge.FromList(cStringSlice(envp))
}

// confstrPathFallback stands in for confstr(_CS_PATH, ...) when PATH is
// absent from the environment, matching glibc's compiled-in default.
func confstrPathFallback() string {
	return "/usr/bin:/bin"
}

//export bear_rewrite_execve
func bear_rewrite_execve(path *C.char, argv **C.char) **C.char {
	if !sessionValid {
		return nil
	}
	tail := cStringSlice(argv)
	if len(tail) > 0 {
		tail = tail[1:]
	}
	return newCArgv(preload.Rewrite(activeSession, C.GoString(path), tail))
}

//export bear_rewrite_execvpe
func bear_rewrite_execvpe(file *C.char, argv **C.char, envp **C.char) **C.char {
	if !sessionValid {
		return nil
	}
	resolved, err := preload.ResolveExecvpe(C.GoString(file), envFromC(envp), confstrPathFallback())
	if err != nil {
		return nil
	}
	tail := cStringSlice(argv)
	if len(tail) > 0 {
		tail = tail[1:]
	}
	return newCArgv(preload.Rewrite(activeSession, resolved, tail))
}

//export bear_rewrite_envp
func bear_rewrite_envp(envp **C.char) **C.char {
	if !sessionValid {
		return nil
	}
	merged := preload.PropagateSelf(envFromC(envp), activeSession.Library)
	return newCArgv(envmerge.ToList(merged))
}
