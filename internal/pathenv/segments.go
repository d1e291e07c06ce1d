package pathenv

import (
	"os"
	"runtime"
	"strings"
)

// List describes how a delimited environment value is split into segments.
type List struct {
	// Sep is the segment delimiter.
	Sep string
	// FoldCase compares segments case-insensitively (Windows).
	FoldCase bool
}

// Platform returns the List for the running OS.
func Platform() List {
	return List{
		Sep:      string(os.PathListSeparator),
		FoldCase: runtime.GOOS == "windows",
	}
}

// Split returns the non-empty segments of value in order.
func (l List) Split(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, l.Sep)
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		segs = append(segs, p)
	}
	return segs
}

// Join joins segments with a single delimiter.
func (l List) Join(segs []string) string {
	return strings.Join(segs, l.Sep)
}

// Equal reports whether two segments name the same entry. Only whole
// segments are compared, never substrings. With FoldCase a trailing path
// separator is ignored as well.
func (l List) Equal(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if l.FoldCase {
		return strings.EqualFold(trimSeparator(a), trimSeparator(b))
	}
	return a == b
}

// trimSeparator drops one trailing \ or /, keeping a bare root intact.
func trimSeparator(s string) string {
	if len(s) > 1 && (strings.HasSuffix(s, `\`) || strings.HasSuffix(s, "/")) {
		return s[:len(s)-1]
	}
	return s
}

// Contains reports whether value holds seg as a whole segment.
func (l List) Contains(value, seg string) bool {
	for _, s := range l.Split(value) {
		if l.Equal(s, seg) {
			return true
		}
	}
	return false
}

// Append adds seg to the end of value unless it is already present.
// The result never has a doubled or leading delimiter at the join point.
func (l List) Append(value, seg string) (string, bool) {
	if l.Contains(value, seg) {
		return value, false
	}
	base := strings.TrimRight(value, l.Sep)
	if strings.TrimSpace(base) == "" {
		return seg, true
	}
	return base + l.Sep + seg, true
}

// Remove drops every segment equal to seg and rejoins the rest.
func (l List) Remove(value, seg string) (string, bool) {
	segs := l.Split(value)
	kept := segs[:0]
	removed := false
	for _, s := range segs {
		if l.Equal(s, seg) {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	if !removed {
		return value, false
	}
	return l.Join(kept), true
}
