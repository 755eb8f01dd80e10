package semantic

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/5c4lar/Bear/internal/compiledb"
	"github.com/5c4lar/Bear/internal/report"
)

// programPatterns recognises a GCC-family compiler front-end by its
// basename: cc/c++/cxx/CC, versioned/prefixed gcc or g++, and
// versioned/prefixed fortran. Joined into one anchored alternation and
// matched against filepath.Base(program).
var programPatterns = regexp.MustCompile(strings.Join([]string{
	`^(cc|c\+\+|cxx|CC)$`,
	`^([^-]*-)*[mg]cc(-?\d+(\.\d+){0,2})?$`,
	`^([^-]*-)*[mg]\+\+(-?\d+(\.\d+){0,2})?$`,
	`^([^-]*-)*[g]?fortran(-?\d+(\.\d+){0,2})?$`,
}, "|"))

// sourceExtensions maps a file extension (including the leading dot) to
// "this is a compiler source file", independent of the language family.
var sourceExtensions = map[string]bool{
	".h": true, ".hh": true, ".H": true, ".hp": true, ".hxx": true, ".hpp": true, ".HPP": true, ".h++": true, ".tcc": true,
	".c": true, ".C": true,
	".cc": true, ".CC": true, ".c++": true, ".C++": true, ".cxx": true, ".cpp": true, ".cp": true,
	".m": true, ".mi": true, ".mm": true, ".M": true, ".mii": true,
	".i": true, ".ii": true,
	".s": true, ".S": true, ".sx": true, ".asm": true,
	".f": true, ".for": true, ".ftn": true, ".F": true, ".FOR": true, ".fpp": true, ".FPP": true, ".FTN": true,
	".f90": true, ".f95": true, ".f03": true, ".f08": true, ".F90": true, ".F95": true, ".F03": true, ".F08": true,
	".go": true,
	".brig": true,
	".d": true, ".di": true, ".dd": true,
	".ads": true, ".abd": true,
}

// flagRule is one entry of the declarative flag table: a token matches
// either by exact name or by anchored regex, and consumes extra
// following tokens into the same CompilerFlag.
type flagRule struct {
	name    string
	pattern *regexp.Regexp
	extra   int
	typ     FlagType
}

func byName(name string, extra int, typ FlagType) flagRule {
	return flagRule{name: name, extra: extra, typ: typ}
}

func byPattern(pattern string, extra int, typ FlagType) flagRule {
	return flagRule{pattern: regexp.MustCompile("^(?:" + pattern + ")$"), extra: extra, typ: typ}
}

func (r flagRule) match(token string) bool {
	if r.name != "" {
		return token == r.name
	}
	return r.pattern.MatchString(token)
}

// preSourceRules covers KIND_OF_OUTPUT*, PREPROCESSOR*, DIRECTORY_SEARCH*
// and LINKER, tried in that order before the source-extension check
// (spec.md §4.3 dispatch order).
var preSourceRules = []flagRule{
	// KindOfOutputFlagMatcher
	byName("-x", 1, KindOfOutput),
	byName("-c", 0, KindOfOutputNoLinking),
	byName("-S", 0, KindOfOutputNoLinking),
	byName("-E", 0, KindOfOutputNoLinking),
	byName("-o", 1, KindOfOutputOutput),
	byName("-dumpbase", 1, KindOfOutput),
	byName("-dumpbase-ext", 1, KindOfOutput),
	byName("-dumpdir", 1, KindOfOutput),
	byName("-v", 0, KindOfOutput),
	byName("-###", 0, KindOfOutput),
	byName("--help", 0, KindOfOutputInfo),
	byName("--target-help", 0, KindOfOutputInfo),
	byPattern(`--help=(.+)`, 0, KindOfOutputInfo),
	byName("--version", 0, KindOfOutputInfo),
	byName("-pass-exit-codes", 0, KindOfOutput),
	byName("-pipe", 0, KindOfOutput),
	byPattern(`-specs=(.+)`, 0, KindOfOutput),
	byName("-wrapper", 1, KindOfOutput),
	byPattern(`-ffile-prefix-map=(.+)`, 0, KindOfOutput),
	byName("-fplugin", 1, KindOfOutput),
	byPattern(`-fplugin=(.+)`, 0, KindOfOutput),
	byName("-fplugin-arg-name-key", 1, KindOfOutput),
	byPattern(`-fplugin-arg-name-key=(.+)`, 0, KindOfOutput),
	byPattern(`-fdump-ada-spec(.*)`, 0, KindOfOutput),
	byPattern(`-fada-spec-parent=(.+)`, 0, KindOfOutput),
	// Upstream Bear carries this exact typo ("sepc" for "spec"); kept
	// verbatim since it is the literal flag GCC's own driver emits for.
	byPattern(`-fdump-go-sepc=(.+)`, 0, KindOfOutput),
	byPattern(`@(.+)`, 0, KindOfOutput),

	// PreprocessorFlagMatcher
	byName("-A", 1, Preprocessor),
	byPattern(`-A(.+)`, 0, Preprocessor),
	byName("-D", 1, Preprocessor),
	byPattern(`-D(.+)`, 0, Preprocessor),
	byName("-U", 1, Preprocessor),
	byPattern(`-U(.+)`, 0, Preprocessor),
	byName("-include", 1, Preprocessor),
	byName("-imacros", 1, Preprocessor),
	byName("-undef", 0, Preprocessor),
	byName("-pthread", 0, Preprocessor),
	byPattern(`-M(|M|G|P|D|MD)`, 0, PreprocessorMake),
	byPattern(`-M(F|T|Q)`, 1, PreprocessorMake),
	byPattern(`-(C|CC|P|traditional|traditional-cpp|trigraphs|remap|H)`, 0, Preprocessor),
	byPattern(`-d[MDNIU]`, 0, Preprocessor),
	byName("-Xpreprocessor", 1, Preprocessor),
	byPattern(`-Wp,(.+)`, 0, Preprocessor),

	// DirectorySearchFlagMatcher
	byName("-I", 1, DirectorySearch),
	byPattern(`-I(.+)`, 0, DirectorySearch),
	byName("-iplugindir", 1, DirectorySearch),
	byPattern(`-iplugindir=(.+)`, 0, DirectorySearch),
	byPattern(`-i(.*)`, 1, DirectorySearch),
	byPattern(`-no(stdinc|stdinc\+\+|-canonical-prefixes|-sysroot-suffix)`, 0, DirectorySearch),
	byName("-L", 1, DirectorySearchLinker),
	byPattern(`-L(.+)`, 0, DirectorySearchLinker),
	byName("-B", 1, DirectorySearch),
	byPattern(`-B(.+)`, 0, DirectorySearch),
	byName("--sysroot", 1, DirectorySearch),
	byPattern(`--sysroot=(.+)`, 0, DirectorySearch),

	// LinkerFlagMatcher
	byPattern(`-flinker-output=(.+)`, 0, Linker),
	byPattern(`-fuse-ld=(.+)`, 0, Linker),
	byName("-l", 1, Linker),
	byPattern(`-l(.+)`, 0, Linker),
	byPattern(`-no(startfiles|defaultlibs|libc|stdlib)`, 0, Linker),
	byName("-e", 1, Linker),
	byPattern(`-entry=(.+)`, 0, Linker),
	byPattern(`-(pie|no-pie|static-pie)`, 0, Linker),
	byPattern(`-(r|rdynamic|s|symbolic)`, 0, Linker),
	byPattern(`-(static|shared)(|-libgcc)`, 0, Linker),
	byPattern(`-static-lib(asan|tsan|lsan|ubsan|stdc\+\+)`, 0, Linker),
	byName("-T", 1, Linker),
	byName("-Xlinker", 1, Linker),
	byPattern(`-Wl,(.+)`, 0, Linker),
	byName("-u", 1, Linker),
	byName("-z", 1, Linker),
}

// postSourceRules covers everything else, tried only once a token has
// failed both preSourceRules and the source-extension check. The final
// entry is a catch-all: any remaining token is a bare linker object file.
var postSourceRules = []flagRule{
	byName("-Xassembler", 1, Other),
	byPattern(`-Wa,(.*)`, 0, Other),
	byName("-ansi", 0, Other),
	byName("-aux-info", 1, Other),
	byPattern(`-std=(.*)`, 0, Other),
	// Upstream uses `.*` (zero-or-more) here, not `.+`: a bare "-g" or
	// "-O" must match here, or the catch-all below would classify it as
	// a linker object file.
	byPattern(`-[Og](.*)`, 0, Other),
	byPattern(`-[fmpW](.+)`, 0, Other),
	byPattern(`-(no|tno|save|d|Wa,)(.+)`, 0, Other),
	byPattern(`-[EQXY](.+)`, 0, Other),
	byPattern(`--(.+)`, 0, Other),
	byPattern(`.+`, 0, LinkerObjectFile),
}

func isSource(token string) bool {
	ext := filepath.Ext(token)
	return ext != "" && sourceExtensions[ext]
}

// parseArgv classifies a compiler invocation's argument tail (argv[1:])
// into CompilerFlags, trying preSourceRules, then the source-extension
// check, then postSourceRules at each position; the catch-all entry in
// postSourceRules guarantees every token is consumed by exactly one
// flag, so Tokens() always reconstructs the input (spec.md §8 property
// 2, parser totality).
func parseArgv(argv []string) CompilerFlags {
	var flags CompilerFlags
	i := 0
	for i < len(argv) {
		token := argv[i]

		if rule, ok := matchRules(preSourceRules, token); ok {
			n := 1 + rule.extra
			if i+n > len(argv) {
				n = len(argv) - i
			}
			flags = append(flags, CompilerFlag{Arguments: append([]string(nil), argv[i:i+n]...), Type: rule.typ})
			i += n
			continue
		}

		if isSource(token) {
			flags = append(flags, CompilerFlag{Arguments: []string{token}, Type: Source})
			i++
			continue
		}

		rule, _ := matchRules(postSourceRules, token)
		n := 1 + rule.extra
		if i+n > len(argv) {
			n = len(argv) - i
		}
		flags = append(flags, CompilerFlag{Arguments: append([]string(nil), argv[i:i+n]...), Type: rule.typ})
		i += n
	}
	return flags
}

func matchRules(rules []flagRule, token string) (flagRule, bool) {
	for _, r := range rules {
		if r.match(token) {
			return r, true
		}
	}
	return flagRule{}, false
}

// noCompilationMakeFlags are PREPROCESSOR_MAKE flags whose presence
// means "dependency listing only", not a compilation (spec.md §4.3
// "compilation-pass detection").
var noCompilationMakeFlags = map[string]bool{"-M": true, "-MM": true}

// runsCompilationPass decides whether a parsed argument list represents
// an actual compilation, versus a no-op, a help/version query, or a
// dependency-only invocation.
func runsCompilationPass(flags CompilerFlags) bool {
	if len(flags) == 0 {
		return false
	}
	if flags.HasType(KindOfOutputInfo) {
		return false
	}
	for _, f := range flags.Filter(PreprocessorMake) {
		if len(f.Arguments) > 0 && noCompilationMakeFlags[f.Arguments[0]] {
			return false
		}
	}
	return true
}

func sourceFiles(flags CompilerFlags) []string {
	var out []string
	for _, f := range flags.Filter(Source) {
		if len(f.Arguments) > 0 {
			out = append(out, f.Arguments[0])
		}
	}
	return out
}

func outputFile(flags CompilerFlags) string {
	for _, f := range flags {
		if f.Type == KindOfOutputOutput && len(f.Arguments) > 0 {
			return f.Arguments[len(f.Arguments)-1]
		}
	}
	return ""
}

// filterArguments projects flags down to the argument vector for one
// source file: drops LINKER, PREPROCESSOR_MAKE and DIRECTORY_SEARCH_LINKER
// flags, drops SOURCE flags for every source other than the one being
// built, and reinserts "-c" when the original command did not already
// request a non-linking pass (spec.md §4.3 "Per-source splitting").
func filterArguments(flags CompilerFlags, source string) []string {
	noLinking := flags.HasType(KindOfOutputNoLinking)

	var out []string
	if !noLinking {
		out = append(out, "-c")
	}
	for _, f := range flags {
		switch f.Type {
		case Linker, PreprocessorMake, DirectorySearchLinker:
			continue
		case Source:
			if len(f.Arguments) > 0 && f.Arguments[0] != source {
				continue
			}
		}
		out = append(out, f.Arguments...)
	}
	return out
}

// includeEnvFlags synthesises directory-search flags from the
// compiler's implicit-include environment variables, since these
// affect the compile the same way an explicit -I would (spec.md §4.3
// "Environment-derived include paths").
func includeEnvFlags(environment map[string]string) []string {
	var out []string
	for _, key := range []string{"CPATH", "C_INCLUDE_PATH", "CPLUS_INCLUDE_PATH"} {
		for _, dir := range splitPathList(environment[key]) {
			out = append(out, "-I", dir)
		}
	}
	for _, dir := range splitPathList(environment["OBJC_INCLUDE_PATH"]) {
		out = append(out, "-isystem", dir)
	}
	return out
}

func splitPathList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ":")
	out := make([]string, len(parts))
	for i, p := range parts {
		if p == "" {
			p = "."
		}
		out[i] = p
	}
	return out
}

// GnuCompilerCollection recognises gcc/g++/cc/c++/fortran family
// compiler invocations and projects them into compilation-database
// entries (spec.md §4.3, grounded on Bear's own Tool.cc).
type GnuCompilerCollection struct {
	// Paths lists extra absolute compiler paths to recognise beyond the
	// name-pattern match, e.g. a configured cross compiler.
	Paths []string
}

func (g GnuCompilerCollection) recognizesProgram(program string) bool {
	for _, p := range g.Paths {
		if p == program {
			return true
		}
	}
	return programPatterns.MatchString(filepath.Base(program))
}

// Recognize implements Recognizer.
func (g GnuCompilerCollection) Recognize(cmd report.Command) (compiledb.Entries, error) {
	if !g.recognizesProgram(cmd.Program) {
		return nil, ErrNotRecognized
	}

	var tail []string
	if len(cmd.Arguments) > 1 {
		tail = cmd.Arguments[1:]
	}
	tail = append(append([]string(nil), tail...), includeEnvFlags(cmd.Environment)...)

	flags := parseArgv(tail)
	if !runsCompilationPass(flags) {
		return compiledb.Entries{}, nil
	}

	sources := sourceFiles(flags)
	if len(sources) == 0 {
		return compiledb.Entries{}, nil
	}
	output := outputFile(flags)

	entries := make(compiledb.Entries, 0, len(sources))
	for _, source := range sources {
		arguments := append([]string{cmd.Program}, filterArguments(flags, source)...)
		entry := compiledb.Entry{
			File:      source,
			Directory: cmd.WorkingDir,
			Output:    output,
			Arguments: arguments,
		}.MakeAbsolute()
		entries = append(entries, entry)
	}
	return entries, nil
}
