package lexical

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	parenRe     = regexp.MustCompile(`\s*\(.*?\)\s*`)
	rosterSepRe = regexp.MustCompile(`[,/;|\n]+`)
)

// CleanInstructorName drops parenthesised annotations and surrounding space.
func CleanInstructorName(text string) string {
	return strings.TrimSpace(parenRe.ReplaceAllString(text, ""))
}

// NormKey is the lower-cased, trimmed form used for every lookup key.
func NormKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Highlight decides whether a cell fill marks the cell as excluded.
type Highlight struct {
	Color string
	// SuffixMatch tolerates a differing alpha prefix by comparing the last six hex digits.
	SuffixMatch bool
}

func normColor(s string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "#"))
}

// Matches reports whether rgb is the exclusion colour.
func (h Highlight) Matches(rgb string) bool {
	want, got := normColor(h.Color), normColor(rgb)
	if want == "" || got == "" {
		return false
	}
	if got == want {
		return true
	}
	if !h.SuffixMatch || len(got) < 6 || len(want) < 6 {
		return false
	}
	return got[len(got)-6:] == want[len(want)-6:]
}

// LastPopulatedRow scans upward from maxRow and returns the first row whose value
// is non-blank. It never returns less than headerRow.
func LastPopulatedRow(maxRow, headerRow int, value func(row int) string) int {
	for r := maxRow; r > headerRow; r-- {
		if strings.TrimSpace(value(r)) != "" {
			return r
		}
	}
	return headerRow
}

// SplitRosterCell splits a multi-value roster cell on comma, slash, semicolon,
// pipe and newline and drops blank parts.
func SplitRosterCell(text string) []string {
	var out []string
	for _, p := range rosterSepRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WholeNumber parses "5", "5.0" or " 5 " as 5. Fractions are truncated.
func WholeNumber(text string) (int, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// NormalizeTime turns "9:00" or "09:00:00" into "09:00:00". Unparsable text is returned trimmed.
func NormalizeTime(text string) string {
	s := strings.TrimSpace(text)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}
	return s
}

// ParseSlot splits "HH:MM-HH:MM" into normalised start and end times. A slot
// without exactly one separator or with a blank side is malformed.
func ParseSlot(slot string) (start, end string, ok bool) {
	parts := strings.Split(slot, "-")
	if len(parts) != 2 {
		return "", "", false
	}
	start, end = NormalizeTime(parts[0]), NormalizeTime(parts[1])
	if start == "" || end == "" {
		return "", "", false
	}
	return start, end, true
}
