// Package pathutil canonicalizes the relative path strings used throughout
// package.json fields and exports maps.
//
// Node's exports map keys and values are always written with an explicit
// "./" prefix; fields like "main" are frequently written without one.
// Everything in this codebase normalizes through this package before
// comparing or emitting paths.
package pathutil

import "strings"

// Normalize returns path with a leading "./" prefix.
//
// The bare package root "." is left as-is, paths already starting with "./"
// are returned unchanged, and the empty string maps to "./".
func Normalize(path string) string {
	if path == "." {
		return path
	}
	if strings.HasPrefix(path, "./") {
		return path
	}
	return "./" + path
}

// StripPrefix removes a leading "./" so the path can be joined with
// filepath.Join against a package directory.
func StripPrefix(path string) string {
	return strings.TrimPrefix(path, "./")
}

// StripExt removes the trailing extension, treating ".d.ts" as a single
// extension so "./lib/index.d.ts" strips to "./lib/index".
func StripExt(path string) string {
	if strings.HasSuffix(path, ".d.ts") {
		return strings.TrimSuffix(path, ".d.ts")
	}
	if idx := strings.LastIndexByte(path, '.'); idx > strings.LastIndexByte(path, '/') {
		return path[:idx]
	}
	return path
}

// Ext returns the trailing extension including the dot, with ".d.ts"
// reported whole. Returns "" when the last path segment has no extension.
func Ext(path string) string {
	if strings.HasSuffix(path, ".d.ts") {
		return ".d.ts"
	}
	if idx := strings.LastIndexByte(path, '.'); idx > strings.LastIndexByte(path, '/') {
		return path[idx:]
	}
	return ""
}
