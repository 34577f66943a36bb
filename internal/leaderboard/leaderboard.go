package leaderboard

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
)

// ErrNameTaken is returned by Submit when the name already has an entry.
var ErrNameTaken = errors.New("name already on the leaderboard")

// ErrInvalidName is returned by Submit for names that cannot round-trip
// through the line format.
var ErrInvalidName = errors.New("invalid leaderboard name")

// DefaultTop is how many entries the game-over screen shows.
const DefaultTop = 5

const separator = ": "

// Entry is one line of the leaderboard.
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	Score int    `json:"score" yaml:"score"`
}

// Store persists leaderboard entries.
type Store interface {
	// Load returns every entry, highest score first.
	Load() ([]Entry, error)
	// Submit adds a new entry. Duplicate names are rejected with ErrNameTaken.
	Submit(name string, score int) error
}

// ValidateName checks that name can be stored as a "name: score" line.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if trimmed != name {
		return fmt.Errorf("%w: leading or trailing space", ErrInvalidName)
	}
	if strings.Contains(name, separator) || strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// FormatLine renders an entry as "name: score".
func FormatLine(e Entry) string {
	return e.Name + separator + strconv.Itoa(e.Score)
}

// ParseLine parses a "name: score" line.
// The score is everything after the last separator so names may contain colons.
func ParseLine(line string) (Entry, error) {
	i := strings.LastIndex(line, separator)
	if i <= 0 {
		return Entry{}, fmt.Errorf("missing %q in line %q", separator, line)
	}
	score, err := strconv.Atoi(strings.TrimSpace(line[i+len(separator):]))
	if err != nil {
		return Entry{}, fmt.Errorf("bad score in line %q: %w", line, err)
	}
	return Entry{Name: line[:i], Score: score}, nil
}

// Decode reads entries from r. Blank lines are ignored and malformed lines
// are logged and skipped. The result is sorted.
func Decode(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := ParseLine(line)
		if err != nil {
			log.Printf("[LEADERBOARD] Skipping line %d: %v", lineNo, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	Sort(entries)
	return entries, nil
}

// Encode writes entries one per line in their current order.
func Encode(w io.Writer, entries []Entry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(FormatLine(e))
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Sort orders entries by descending score. Ties keep their input order.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

// Top returns at most n of the highest entries. entries must already be sorted.
func Top(entries []Entry, n int) []Entry {
	if n < 0 {
		n = 0
	}
	if len(entries) < n {
		n = len(entries)
	}
	out := make([]Entry, n)
	copy(out, entries[:n])
	return out
}

// Contains reports whether name already has an entry.
func Contains(entries []Entry, name string) bool {
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// insert validates name and returns entries with the new entry added, sorted.
func insert(entries []Entry, name string, score int) ([]Entry, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if Contains(entries, name) {
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	out := make([]Entry, len(entries), len(entries)+1)
	copy(out, entries)
	out = append(out, Entry{Name: name, Score: score})
	Sort(out)
	return out, nil
}
