package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"
)

// LogEntry is one parsed JSON log line.
type LogEntry struct {
	Time  time.Time
	Level string
	Msg   string
	Attrs map[string]any
	Raw   string
	Valid bool
}

// ViewerConfig filters entries shown by a Viewer.
type ViewerConfig struct {
	Level   string
	Pattern *regexp.Regexp
}

// Viewer reads and filters docindex log files.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
}

// NewViewer creates a viewer writing to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{config: cfg, out: out}
}

// Tail returns the matching entries among the last n lines of path.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []LogEntry
	for _, line := range lines {
		entry := ParseLine(line)
		if v.Matches(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Print writes entries in the one-line human format.
func (v *Viewer) Print(entries []LogEntry) {
	for _, e := range entries {
		_, _ = fmt.Fprintln(v.out, FormatEntry(e))
	}
}

// Matches applies the level floor and the pattern filter.
func (v *Viewer) Matches(e LogEntry) bool {
	if v.config.Level != "" && e.Valid {
		if parseLevel(e.Level) < parseLevel(v.config.Level) {
			return false
		}
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(e.Raw) {
		return false
	}
	return true
}

// ParseLine decodes a slog JSON line. Non-JSON lines come back with Valid false.
func ParseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return entry
	}

	entry.Valid = true
	entry.Attrs = make(map[string]any)
	for k, val := range fields {
		switch k {
		case "time":
			if s, ok := val.(string); ok {
				entry.Time, _ = time.Parse(time.RFC3339Nano, s)
			}
		case "level":
			entry.Level, _ = val.(string)
		case "msg":
			entry.Msg, _ = val.(string)
		default:
			entry.Attrs[k] = val
		}
	}
	return entry
}

// FormatEntry renders "15:04:05.000 LEVEL msg key=value ...".
func FormatEntry(e LogEntry) string {
	if !e.Valid {
		return e.Raw
	}

	var sb strings.Builder
	sb.WriteString(e.Time.Format("15:04:05.000"))
	sb.WriteString(" ")
	sb.WriteString(fmt.Sprintf("%-5s", strings.ToUpper(e.Level)))
	sb.WriteString(" ")
	sb.WriteString(e.Msg)

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf(" %s=%v", k, e.Attrs[k]))
	}
	return sb.String()
}
