// Package mcplog writes one JSONL line per MCP tool call.
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

// LogEntry is the schema for one JSONL line.
type LogEntry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	TokensEst     int            `json:"tokens_est"`
	IsError       bool           `json:"is_error"`
	Error         *string        `json:"error"`
}

// NewEntry builds the entry for a finished call. A tool-level error result
// (IsError) and a protocol error (err) are recorded separately.
func NewEntry(tool string, args map[string]any, start time.Time, result *mcp.CallToolResult, err error) LogEntry {
	rb := ResponseBytes(result)
	entry := LogEntry{
		Ts:            start.UTC().Format(time.RFC3339),
		Tool:          tool,
		Params:        SanitizeParams(args),
		DurationMs:    Now().Sub(start).Milliseconds(),
		ResponseBytes: rb,
		TokensEst:     rb / 4,
		IsError:       result != nil && result.IsError,
	}
	if err != nil {
		msg := err.Error()
		entry.Error = &msg
	}
	return entry
}

// Logger appends entries to a file. It is safe for concurrent use, and a nil
// *Logger is a valid disabled logger.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewLogger opens (or creates) path for appending. Parent directories are
// created. An empty path returns nil, nil.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &Logger{f: f, enc: enc}, nil
}

// Write appends one entry. Callers ignore the error so logging never
// affects a tool result.
func (l *Logger) Write(entry LogEntry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// SanitizeParams returns a copy of args safe for logging. Strings longer
// than 64 bytes become a "{key}_len" entry holding their length.
func SanitizeParams(args map[string]any) map[string]any {
	const shortStringMax = 64
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > shortStringMax {
			out[k+"_len"] = len(s)
		} else {
			out[k] = v
		}
	}
	return out
}

// ResponseBytes is the serialized size of a result's content; 0 for nil.
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

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }
