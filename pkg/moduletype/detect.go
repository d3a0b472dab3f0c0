package moduletype

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tidwall/jsonc"
)

// Detector classifies a file on disk as ESM or CJS.
//
// Classification tries, in strict priority order:
//  1. the file extension (.mjs / .cjs),
//  2. the "type" field of the nearest package.json,
//  3. a content sniff for import/export vs require/module.exports tokens.
//
// Anything unreadable or inconclusive is KindUnknown; detection never fails.
type Detector struct {
	logger *slog.Logger
}

// NewDetector creates a Detector. A nil logger falls back to slog.Default().
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

var (
	esmImportRe  = regexp.MustCompile(`(?m)^\s*(import|export)[\s{*'"]`)
	esmDynamicRe = regexp.MustCompile(`\bimport\s*\(`)
	cjsRequireRe = regexp.MustCompile(`\brequire\s*\(`)
	cjsModuleRe  = regexp.MustCompile(`\bmodule\.exports\s*=`)
	cjsExportsRe = regexp.MustCompile(`\bexports\.[A-Za-z_$]`)
)

// Detect classifies the file at filePath. The walk for the nearest
// package.json stops at packageDir.
func (d *Detector) Detect(filePath, packageDir string) Kind {
	switch filepath.Ext(filePath) {
	case ".mjs":
		return KindESM
	case ".cjs":
		return KindCJS
	}

	if kind := d.nearestPackageType(filepath.Dir(filePath), packageDir); kind != KindUnknown {
		return kind
	}

	return d.sniffContent(filePath)
}

// nearestPackageType walks from dir up to stopDir (inclusive) looking for a
// package.json with a "type" field.
func (d *Detector) nearestPackageType(dir, stopDir string) Kind {
	stopDir = filepath.Clean(stopDir)
	for {
		dir = filepath.Clean(dir)
		if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
			var pkg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err == nil {
				switch pkg.Type {
				case "module":
					return KindESM
				case "commonjs":
					return KindCJS
				}
			}
			// A package.json without a usable "type" field still ends the
			// walk: it is the nearest package boundary.
			return KindUnknown
		}
		if dir == stopDir {
			return KindUnknown
		}
		parent := filepath.Dir(dir)
		if parent == dir || len(parent) < len(stopDir) {
			return KindUnknown
		}
		dir = parent
	}
}

// sniffContent looks for module-system tokens in the file body.
// The ESM patterns are checked first; an unreadable file is KindUnknown.
func (d *Detector) sniffContent(filePath string) Kind {
	data, err := os.ReadFile(filePath)
	if err != nil {
		d.logger.Debug("content sniff skipped", "file", filePath, "error", err)
		return KindUnknown
	}

	content := string(data)
	if esmImportRe.MatchString(content) || esmDynamicRe.MatchString(content) {
		return KindESM
	}
	if cjsRequireRe.MatchString(content) || cjsModuleRe.MatchString(content) ||
		cjsExportsRe.MatchString(content) {
		return KindCJS
	}
	return KindUnknown
}
