// Package config carries the small closed tables spec.md treats as given:
// recognised source extensions, magic-variable and property names, and
// build metadata.
// Grounded on the teacher's internal/config/constants.go, which plays the
// identical "fixed vocabulary, no framework" role for funxy.
package config

// Version is the compiler version, set at build time via -ldflags.
var Version = "0.1.0"

// SourceFileExt is the canonical Vehicle source extension.
const SourceFileExt = ".vcl"

// SourceFileExtensions lists every extension the driver recognises.
var SourceFileExtensions = []string{".vcl", ".vehicle"}

// HasSourceExt reports whether path ends in a recognised source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode is a test-mode flag mirroring the teacher's
// config.IsTestMode; no package in this repository reads it, so it
// changes no output.
var IsTestMode = false

// Magic-variable name prefixes of the VNNLib backend (spec.md §4.5 / §6);
// internal/vnnlib writes the same "X"/"Y" as literals rather than reading
// these constants.
const (
	MagicInputPrefix  = "X"
	MagicOutputPrefix = "Y"
)

// PropertyReturnType is the builtin type a DefFun's type must be for the
// VNNLib backend to treat it as a property (spec.md §4.5, Glossary);
// internal/vnnlib compares against the Prop builtin directly.
const PropertyReturnType = "Prop"
