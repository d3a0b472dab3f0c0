// Package buildpattern classifies a package's dual-build convention from
// its main and module fields.
//
// Packages that ship both CJS and ESM outputs almost always distinguish the
// two builds one of three ways: a directory per build (lib/cjs vs lib/esm),
// an extension per build (index.cjs vs index.mjs), or a filename prefix
// (cjs.index.js vs esm.index.js). Detection is best-effort; anything
// ambiguous or unconventional classifies as none, which disables pattern
// expansion — the conservative outcome.
package buildpattern

import (
	"path"
	"strings"

	"github.com/gnana997/exportfix/pkg/moduletype"
	"github.com/gnana997/exportfix/pkg/pathutil"
)

// Type is the dual-build convention.
type Type int

const (
	// TypeNone means no dual-build convention was detected.
	TypeNone Type = iota
	// TypeDirectory means the builds live in sibling directories (lib/cjs, lib/esm).
	TypeDirectory
	// TypeExtension means the builds differ by extension (.cjs, .mjs).
	TypeExtension
	// TypePrefix means the builds differ by a filename prefix (cjs.index.js).
	TypePrefix
)

// String returns the string representation of the pattern type.
func (t Type) String() string {
	switch t {
	case TypeDirectory:
		return "directory"
	case TypeExtension:
		return "extension"
	case TypePrefix:
		return "prefix"
	default:
		return "none"
	}
}

// Variant describes one side of a dual build: the shared base path up to
// the distinguishing token, and the token itself (original case preserved).
type Variant struct {
	BasePath   string
	Identifier string
}

// Pattern is the detected dual-build convention. Derived fresh from a
// package's main/module fields; never persisted.
type Pattern struct {
	HasMultipleBuilds bool
	Type              Type
	CJS               Variant
	ESM               Variant

	// separator is only set for prefix patterns ("." or "-").
	separator string
}

// Detect classifies the dual-build convention of main/module field paths.
// Returns a none pattern when either field is missing or both normalize to
// the same path. The CJS/ESM assignment is order-independent: swapping the
// arguments yields the same variants.
func Detect(mainField, moduleField string) Pattern {
	none := Pattern{Type: TypeNone}
	if mainField == "" || moduleField == "" {
		return none
	}

	a := pathutil.Normalize(mainField)
	b := pathutil.Normalize(moduleField)
	if a == b {
		return none
	}

	if p, ok := detectDirectory(a, b); ok {
		return p
	}
	if p, ok := detectExtension(a, b); ok {
		return p
	}
	if p, ok := detectPrefix(a, b); ok {
		return p
	}
	return none
}

// detectDirectory matches sibling build directories: equal depth, compatible
// trailing filenames, and exactly one differing directory segment whose two
// spellings classify as CJS on one side and ESM on the other.
func detectDirectory(a, b string) (Pattern, bool) {
	segsA := strings.Split(a, "/")
	segsB := strings.Split(b, "/")
	if len(segsA) != len(segsB) || len(segsA) < 2 {
		return Pattern{}, false
	}

	fileA := segsA[len(segsA)-1]
	fileB := segsB[len(segsB)-1]
	if fileA != fileB && pathutil.StripExt(fileA) != pathutil.StripExt(fileB) {
		return Pattern{}, false
	}

	diffIdx := -1
	for i := 0; i < len(segsA)-1; i++ {
		if segsA[i] == segsB[i] {
			continue
		}
		if diffIdx != -1 {
			return Pattern{}, false
		}
		diffIdx = i
	}
	if diffIdx == -1 {
		return Pattern{}, false
	}

	kindA := moduletype.ClassifyIdentifier(segsA[diffIdx])
	kindB := moduletype.ClassifyIdentifier(segsB[diffIdx])
	if !opposingKinds(kindA, kindB) {
		return Pattern{}, false
	}

	base := strings.Join(segsA[:diffIdx], "/")
	if base == "" {
		base = "."
	}
	cjsIdent, esmIdent := segsA[diffIdx], segsB[diffIdx]
	if kindA == moduletype.KindESM {
		cjsIdent, esmIdent = esmIdent, cjsIdent
	}

	return Pattern{
		HasMultipleBuilds: true,
		Type:              TypeDirectory,
		CJS:               Variant{BasePath: base, Identifier: cjsIdent},
		ESM:               Variant{BasePath: base, Identifier: esmIdent},
	}, true
}

// detectExtension matches builds that differ only by extension. ".js" is
// ambiguous and accepted opposite either ".cjs" or ".mjs".
func detectExtension(a, b string) (Pattern, bool) {
	baseA, baseB := pathutil.StripExt(a), pathutil.StripExt(b)
	if baseA != baseB {
		return Pattern{}, false
	}

	extA, extB := pathutil.Ext(a), pathutil.Ext(b)
	if extA == extB || extA == "" || extB == "" {
		return Pattern{}, false
	}

	kindA := moduletype.ClassifyExtension(extA)
	kindB := moduletype.ClassifyExtension(extB)

	// Resolve the ambiguous ".js" side against a determinate opposite.
	if extA == ".js" && kindB != moduletype.KindUnknown {
		kindA = opposite(kindB)
	}
	if extB == ".js" && kindA != moduletype.KindUnknown {
		kindB = opposite(kindA)
	}
	if !opposingKinds(kindA, kindB) {
		return Pattern{}, false
	}

	cjsExt, esmExt := extA, extB
	if kindA == moduletype.KindESM {
		cjsExt, esmExt = esmExt, cjsExt
	}

	return Pattern{
		HasMultipleBuilds: true,
		Type:              TypeExtension,
		CJS:               Variant{BasePath: baseA, Identifier: cjsExt},
		ESM:               Variant{BasePath: baseA, Identifier: esmExt},
	}, true
}

// detectPrefix matches filenames that differ by a leading token before a
// "." or "-" separator, with identical remainders (cjs.index.js vs
// esm.index.js).
func detectPrefix(a, b string) (Pattern, bool) {
	dirA, fileA := path.Split(a)
	dirB, fileB := path.Split(b)
	if dirA != dirB || fileA == fileB {
		return Pattern{}, false
	}

	for _, sep := range []string{".", "-"} {
		tokA, restA, okA := strings.Cut(fileA, sep)
		tokB, restB, okB := strings.Cut(fileB, sep)
		if !okA || !okB || restA == "" || restA != restB {
			continue
		}

		kindA := moduletype.ClassifyIdentifier(tokA)
		kindB := moduletype.ClassifyIdentifier(tokB)
		if !opposingKinds(kindA, kindB) {
			continue
		}

		base := strings.TrimSuffix(dirA, "/")
		if base == "" {
			base = "."
		}
		cjsTok, esmTok := tokA, tokB
		if kindA == moduletype.KindESM {
			cjsTok, esmTok = esmTok, cjsTok
		}

		return Pattern{
			HasMultipleBuilds: true,
			Type:              TypePrefix,
			CJS:               Variant{BasePath: base, Identifier: cjsTok},
			ESM:               Variant{BasePath: base, Identifier: esmTok},
			separator:         sep,
		}, true
	}
	return Pattern{}, false
}

// Expand rewrites an import path into its CJS-side and ESM-side candidate
// paths according to the pattern type. Returns ok=false when the pattern
// cannot apply to this path (no dual build detected, or a directory pattern
// whose base the path does not share).
func (p Pattern) Expand(importPath string) (cjsPath, esmPath string, ok bool) {
	if !p.HasMultipleBuilds {
		return "", "", false
	}
	importPath = pathutil.Normalize(importPath)

	switch p.Type {
	case TypeDirectory:
		rest, found := strings.CutPrefix(importPath, p.CJS.BasePath+"/")
		if !found {
			return "", "", false
		}
		return p.CJS.BasePath + "/" + p.CJS.Identifier + "/" + rest,
			p.ESM.BasePath + "/" + p.ESM.Identifier + "/" + rest,
			true

	case TypeExtension:
		base := importPath
		if ext := pathutil.Ext(importPath); isScriptExt(ext) {
			base = pathutil.StripExt(importPath)
		}
		return base + p.CJS.Identifier, base + p.ESM.Identifier, true

	case TypePrefix:
		dir, file := path.Split(importPath)
		return dir + p.CJS.Identifier + p.separator + file,
			dir + p.ESM.Identifier + p.separator + file,
			true
	}
	return "", "", false
}

func isScriptExt(ext string) bool {
	switch ext {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs":
		return true
	}
	return false
}

func opposingKinds(a, b moduletype.Kind) bool {
	return (a == moduletype.KindCJS && b == moduletype.KindESM) ||
		(a == moduletype.KindESM && b == moduletype.KindCJS)
}

func opposite(k moduletype.Kind) moduletype.Kind {
	switch k {
	case moduletype.KindCJS:
		return moduletype.KindESM
	case moduletype.KindESM:
		return moduletype.KindCJS
	default:
		return moduletype.KindUnknown
	}
}
