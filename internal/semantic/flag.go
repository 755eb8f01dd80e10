// Package semantic implements the compiler-command recognition engine
// (spec.md §4.3): classifying argv tokens into a closed set of flag
// kinds, deciding whether an execution is a compilation, and
// projecting it into zero or more compilation-database entries.
package semantic

// FlagType is the closed enumeration classifying each argv token
// family (spec.md's "Polymorphic flag families" design note). Expressed
// as a tagged sum rather than a class hierarchy: every consumer
// dispatches on Type.
type FlagType int

const (
	KindOfOutput FlagType = iota
	KindOfOutputNoLinking
	KindOfOutputInfo
	KindOfOutputOutput
	Preprocessor
	PreprocessorMake
	Linker
	LinkerObjectFile
	DirectorySearch
	DirectorySearchLinker
	Source
	Other
)

func (t FlagType) String() string {
	switch t {
	case KindOfOutput:
		return "KIND_OF_OUTPUT"
	case KindOfOutputNoLinking:
		return "KIND_OF_OUTPUT_NO_LINKING"
	case KindOfOutputInfo:
		return "KIND_OF_OUTPUT_INFO"
	case KindOfOutputOutput:
		return "KIND_OF_OUTPUT_OUTPUT"
	case Preprocessor:
		return "PREPROCESSOR"
	case PreprocessorMake:
		return "PREPROCESSOR_MAKE"
	case Linker:
		return "LINKER"
	case LinkerObjectFile:
		return "LINKER_OBJECT_FILE"
	case DirectorySearch:
		return "DIRECTORY_SEARCH"
	case DirectorySearchLinker:
		return "DIRECTORY_SEARCH_LINKER"
	case Source:
		return "SOURCE"
	case Other:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// CompilerFlag is one recognised argv token (or token + operands),
// immutable once built.
type CompilerFlag struct {
	Arguments []string
	Type      FlagType
}

// CompilerFlags is an ordered list of recognised flags, the output of
// a successful parse of one execution's argv tail.
type CompilerFlags []CompilerFlag

// Tokens concatenates every flag's argument tokens back into a flat
// argv-shaped slice, used by the parser-totality property (spec.md §8
// property 2: every parsed argv tail reconstructs to the original).
func (fs CompilerFlags) Tokens() []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Arguments...)
	}
	return out
}

// Filter returns the subset of flags whose Type is in types.
func (fs CompilerFlags) Filter(types ...FlagType) CompilerFlags {
	set := make(map[FlagType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	var out CompilerFlags
	for _, f := range fs {
		if set[f.Type] {
			out = append(out, f)
		}
	}
	return out
}

// HasType reports whether any flag in fs has the given type.
func (fs CompilerFlags) HasType(t FlagType) bool {
	for _, f := range fs {
		if f.Type == t {
			return true
		}
	}
	return false
}
