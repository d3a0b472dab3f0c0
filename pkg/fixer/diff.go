package fixer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/gnana997/exportfix/pkg/exports"
)

var (
	diffHeader  = color.New(color.FgCyan, color.Bold)
	diffRemoved = color.New(color.FgRed)
	diffAdded   = color.New(color.FgGreen)
)

// renderDiff prints the before/after exports value for one package.
// Colors degrade to plain text when output is not a terminal.
func renderDiff(w io.Writer, eval Evaluation) {
	diffHeader.Fprintf(w, "%s (%s)\n", eval.Package, eval.Dir)

	if eval.Current == nil {
		fmt.Fprintln(w, "  no exports field")
	} else {
		for _, line := range indentedLines(eval.Current) {
			diffRemoved.Fprintf(w, "- %s\n", line)
		}
	}
	for _, line := range indentedLines(eval.Computed) {
		diffAdded.Fprintf(w, "+ %s\n", line)
	}
	fmt.Fprintln(w)
}

func indentedLines(m *exports.Map) []string {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return []string{fmt.Sprintf("<unserializable: %v>", err)}
	}
	return strings.Split(string(data), "\n")
}
