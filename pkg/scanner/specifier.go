package scanner

import "strings"

// SplitSpecifier splits a bare module specifier into the package name and
// the package-relative import path ("." for the bare package). Relative,
// absolute, and node: builtin specifiers report ok=false — they never
// contribute usage evidence.
func SplitSpecifier(specifier string) (pkg, importPath string, ok bool) {
	if specifier == "" ||
		strings.HasPrefix(specifier, ".") ||
		strings.HasPrefix(specifier, "/") ||
		strings.HasPrefix(specifier, "node:") {
		return "", "", false
	}

	parts := strings.Split(specifier, "/")
	var rest []string
	if strings.HasPrefix(specifier, "@") {
		// Scoped name: @scope/name[/subpath...]
		if len(parts) < 2 || parts[1] == "" {
			return "", "", false
		}
		pkg = parts[0] + "/" + parts[1]
		rest = parts[2:]
	} else {
		pkg = parts[0]
		rest = parts[1:]
	}

	if len(rest) == 0 {
		return pkg, ".", true
	}
	return pkg, "./" + strings.Join(rest, "/"), true
}
