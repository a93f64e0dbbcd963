package execution

import (
	"fmt"
	"strings"
	"time"
)

// LogSource tells whether a line came from stdout or stderr.
type LogSource int

const (
	Stdout LogSource = iota
	Stderr
)

func (s LogSource) String() string {
	if s == Stderr {
		return "[ERR]"
	}
	return "[OUT]"
}

// LogLine is one captured line of output with its origin and wall
// clock timestamp.
type LogLine struct {
	Timestamp time.Time
	Source    LogSource
	Content   string
}

// NewLogLine stamps a line with the current time, stripping a trailing
// newline.
func NewLogLine(source LogSource, content string) LogLine {
	return LogLine{
		Timestamp: time.Now(),
		Source:    source,
		Content:   strings.TrimRight(content, "\n"),
	}
}

// EmptyLogLine is the line carried by workflow sentinel events.
func EmptyLogLine() LogLine {
	return NewLogLine(Stdout, "")
}

func (l LogLine) String() string {
	return fmt.Sprintf("%s %s %s", l.Timestamp.Format("15:04:05"), l.Source, l.Content)
}

// DefaultLogBufferSize bounds a log buffer when no capacity is given.
const DefaultLogBufferSize = 10000

// LogBuffer is a bounded FIFO of log lines. When full, pushing evicts
// the oldest entry.
type LogBuffer struct {
	lines   []LogLine
	maxSize int
}

// NewLogBuffer creates a buffer holding at most maxSize lines.
func NewLogBuffer(maxSize int) *LogBuffer {
	if maxSize <= 0 {
		maxSize = DefaultLogBufferSize
	}
	return &LogBuffer{maxSize: maxSize}
}

// Push appends a line, evicting the oldest one when the buffer is full.
func (b *LogBuffer) Push(line LogLine) {
	if len(b.lines) >= b.maxSize {
		b.lines = b.lines[1:]
	}
	b.lines = append(b.lines, line)
}

// Len returns the number of buffered lines.
func (b *LogBuffer) Len() int { return len(b.lines) }

// IsEmpty reports whether the buffer holds no lines.
func (b *LogBuffer) IsEmpty() bool { return len(b.lines) == 0 }

// Lines returns the buffered lines in insertion order.
func (b *LogBuffer) Lines() []LogLine { return b.lines }

// Tail returns the last n lines in insertion order.
func (b *LogBuffer) Tail(n int) []LogLine {
	if n >= len(b.lines) {
		return b.lines
	}
	return b.lines[len(b.lines)-n:]
}

// Clear drops every buffered line.
func (b *LogBuffer) Clear() { b.lines = b.lines[:0] }

// Append moves every line from source into b, emptying source.
func (b *LogBuffer) Append(source *LogBuffer) {
	for _, line := range source.lines {
		b.Push(line)
	}
	source.Clear()
}

func (b *LogBuffer) String() string {
	parts := make([]string, len(b.lines))
	for i, line := range b.lines {
		parts[i] = line.String()
	}
	return strings.Join(parts, "\n")
}
