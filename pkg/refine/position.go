package refine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/deckwright/deckwright/pkg/domain"
)

var (
	relativeNumberPattern = regexp.MustCompile(`(?i)\b(after|before)\s+slide\s*#?\s*(\d+)\b`)
	relativeTitlePattern  = regexp.MustCompile(`(?i)\b(after|before)\s+the\s+(.+?)(?:\s+slide)?\s*$`)
	beginningPattern      = regexp.MustCompile(`(?i)\b(at\s+the\s+)?(beginning|start|top|first)\b`)
	endPattern            = regexp.MustCompile(`(?i)\b(at\s+the\s+end|append|last)\b`)
)

// resolveInsertIndex turns positional language into a 0-based insertion
// index. "after slide 1" on a 3-slide outline yields 1 (the new slide becomes
// number 2). When no position is expressed the slide is appended — the
// documented default. A position that names a nonexistent slide is
// domain.ErrInvalidPosition.
func resolveInsertIndex(o *domain.Outline, text string) (int, error) {
	if m := relativeNumberPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 || n > len(o.Slides) {
			return 0, fmt.Errorf("cannot insert relative to slide %s (outline has %d slides): %w", m[2], len(o.Slides), domain.ErrInvalidPosition)
		}
		if isBefore(m[1]) {
			return n - 1, nil
		}
		return n, nil
	}

	if m := relativeTitlePattern.FindStringSubmatch(text); m != nil {
		if idx, err := fuzzyMatchTitle(o, m[2]); err == nil {
			if isBefore(m[1]) {
				return idx, nil
			}
			return idx + 1, nil
		}
		// Named reference that matched nothing: fall through to append,
		// the documented default for an unresolvable position.
	}

	if beginningPattern.MatchString(text) {
		return 0, nil
	}
	if endPattern.MatchString(text) {
		return len(o.Slides), nil
	}

	return len(o.Slides), nil
}

func isBefore(s string) bool {
	return strings.EqualFold(s, "before")
}
