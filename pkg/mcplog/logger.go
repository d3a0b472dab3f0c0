// Package mcplog records MCP tool-call telemetry as JSONL, one entry per
// call. The log is an audit trail for agent sessions: which tools were
// invoked, with what parameter shapes, how long they took, and how much
// response payload they produced.
package mcplog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }

// maxInlineParam is the longest string parameter written verbatim; anything
// larger is summarized by length so code and query payloads never land in
// the log.
const maxInlineParam = 64

// LogEntry is one JSONL line.
type LogEntry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	TokensEst     int            `json:"tokens_est"`
	Error         *string        `json:"error"`
}

// Logger appends entries to a single file. Each entry is marshaled first
// and written as one atomic call under the lock, so concurrent tool
// handlers never interleave partial lines.
type Logger struct {
	mu     sync.Mutex
	f      *os.File
	closed bool
}

// NewLogger opens path for appending, creating parent directories as
// needed. An empty path returns nil, nil; callers treat a nil Logger as
// logging disabled.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return &Logger{f: f}, nil
}

// Write appends one entry. Callers typically drop the error; a failing log
// must never fail the tool call it describes.
func (l *Logger) Write(entry LogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("mcplog: marshal entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return os.ErrClosed
	}
	_, err = l.f.Write(line)
	return err
}

// Close closes the log file. Idempotent.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.f.Close()
}

// SanitizeParams copies args for logging. String values longer than
// maxInlineParam are dropped in favor of a "{key}_len" integer.
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch s, ok := v.(string); {
		case ok && len(s) > maxInlineParam:
			out[k+"_len"] = len(s)
		default:
			out[k] = v
		}
	}
	return out
}

// ResponseBytes returns the serialized size of a result's content, 0 for a
// nil result or a marshal failure.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}
