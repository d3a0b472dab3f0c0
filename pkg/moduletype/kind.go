// Package moduletype classifies files and naming tokens as CommonJS or ESM.
//
// Dual-build packages tell the two builds apart with conventional tokens in
// directory names ("cjs"/"esm"), extensions (".cjs"/".mjs") or filename
// prefixes ("cjs.index.js"). The classifier centralizes those heuristics so
// the rest of the codebase never pattern-matches identifier strings inline.
package moduletype

import "regexp"

// Kind is the module system a file or naming token belongs to.
type Kind int

const (
	// KindUnknown means no heuristic matched. Callers treat unknown files
	// as CJS-like (still emit a "require" condition) since that is the
	// safer assumption for legacy packages.
	KindUnknown Kind = iota
	// KindCJS is CommonJS (require/module.exports).
	KindCJS
	// KindESM is an ECMAScript module (import/export).
	KindESM
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindCJS:
		return "cjs"
	case KindESM:
		return "esm"
	default:
		return "unknown"
	}
}

var (
	cjsIdentifierRe = regexp.MustCompile(`(?i)^(cjs|commonjs|common|node)$`)
	esmIdentifierRe = regexp.MustCompile(`(?i)^(esm|es|module|modules|import)$`)
)

// ClassifyIdentifier classifies a naming token (a directory segment or a
// filename prefix) as CJS-like or ESM-like.
func ClassifyIdentifier(token string) Kind {
	switch {
	case cjsIdentifierRe.MatchString(token):
		return KindCJS
	case esmIdentifierRe.MatchString(token):
		return KindESM
	default:
		return KindUnknown
	}
}

// ClassifyExtension classifies a file extension (with leading dot).
// ".js" is ambiguous and reported as unknown; build-pattern detection
// accepts it on either side of a dual build.
func ClassifyExtension(ext string) Kind {
	switch ext {
	case ".cjs":
		return KindCJS
	case ".mjs":
		return KindESM
	default:
		return KindUnknown
	}
}
