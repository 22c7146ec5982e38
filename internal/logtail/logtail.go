package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed plaintext log line.
type Entry struct {
	Time    string
	Level   string // upper case: DEBUG, INFO, WARN, ERROR; empty when unparsed
	Logger  string
	Caller  string
	Message string
	Fields  string // trailing JSON object, if any
	Raw     string
}

// Parse splits a tab-separated plaintext line written by go-log:
//
//	<time>\t<LEVEL>\t<logger>\t<caller>\t<message>[\t<json fields>]
//
// Lines in any other shape come back with only Raw and Message set.
func Parse(line string) Entry {
	e := Entry{Raw: line, Message: line}
	parts := strings.Split(line, "\t")
	if len(parts) < 4 {
		return e
	}
	level := strings.ToUpper(strings.TrimSpace(parts[1]))
	if !knownLevel(level) {
		return e
	}

	e.Time = parts[0]
	e.Level = level
	e.Logger = parts[2]
	rest := parts[3:]
	if len(rest) > 1 && strings.Contains(rest[0], ".go:") {
		e.Caller = rest[0]
		rest = rest[1:]
	}
	e.Message = rest[0]
	if len(rest) > 1 {
		e.Fields = strings.Join(rest[1:], "\t")
	}
	return e
}

// ParseLines parses every line.
func ParseLines(lines []string) []Entry {
	out := make([]Entry, len(lines))
	for i, l := range lines {
		out[i] = Parse(l)
	}
	return out
}

// AtLeast reports whether the entry's level is at or above min. Unparsed
// entries always pass.
func (e Entry) AtLeast(min string) bool {
	if e.Level == "" {
		return true
	}
	return levelRank(e.Level) >= levelRank(strings.ToUpper(min))
}

func knownLevel(l string) bool {
	return levelRank(l) >= 0
}

func levelRank(l string) int {
	switch l {
	case "DEBUG":
		return 0
	case "INFO":
		return 1
	case "WARN":
		return 2
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return 3
	default:
		return -1
	}
}
