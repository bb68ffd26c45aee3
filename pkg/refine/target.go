package refine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/deckwright/deckwright/pkg/domain"
)

var slideNumberPattern = regexp.MustCompile(`(?i)\bslide\s*#?\s*(\d+)\b`)

// stopwords excluded from fuzzy title matching.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "to": {}, "and": {}, "or": {},
	"in": {}, "on": {}, "for": {}, "with": {}, "slide": {}, "slides": {},
	"please": {}, "can": {}, "you": {}, "make": {}, "more": {}, "add": {},
	"remove": {}, "delete": {}, "update": {}, "change": {}, "this": {},
	"that": {}, "it": {}, "about": {},
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; skip || len(f) < 3 {
			continue
		}
		out = append(out, f)
	}
	return out
}

// resolveTargets maps a refinement request onto slide indexes (0-based).
// Explicit numbers win; otherwise the slide titles (and type names) are
// fuzzy-matched. No match or an equal-score tie is domain.ErrAmbiguousTarget —
// the caller asks the user, it never guesses.
func resolveTargets(o *domain.Outline, text string) ([]int, error) {
	if matches := slideNumberPattern.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		seen := make(map[int]struct{})
		var idxs []int
		for _, m := range matches {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 || n > len(o.Slides) {
				return nil, fmt.Errorf("slide %s does not exist (outline has %d slides): %w", m[1], len(o.Slides), domain.ErrAmbiguousTarget)
			}
			if _, dup := seen[n]; !dup {
				seen[n] = struct{}{}
				idxs = append(idxs, n-1)
			}
		}
		return idxs, nil
	}

	idx, err := fuzzyMatchTitle(o, text)
	if err != nil {
		return nil, err
	}
	return []int{idx}, nil
}

// fuzzyMatchTitle scores each slide by token overlap between the request and
// the slide's title plus its type keyword ("conclusion", "title", ...).
func fuzzyMatchTitle(o *domain.Outline, text string) (int, error) {
	req := tokenize(text)
	if len(req) == 0 {
		return 0, fmt.Errorf("no slide reference in request: %w", domain.ErrAmbiguousTarget)
	}

	best, bestScore, ties := -1, 0, 0
	for i, s := range o.Slides {
		title := tokenize(s.Title)
		title = append(title, typeKeywords(s.SlideType)...)
		score := 0
		for _, rt := range req {
			for _, tt := range title {
				if rt == tt {
					score++
					break
				}
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, ties = i, score, 1
		case score == bestScore && score > 0:
			ties++
		}
	}

	if bestScore == 0 {
		return 0, fmt.Errorf("no slide matches %q: %w", text, domain.ErrAmbiguousTarget)
	}
	if ties > 1 {
		return 0, fmt.Errorf("%d slides match %q equally well: %w", ties, text, domain.ErrAmbiguousTarget)
	}
	return best, nil
}

func typeKeywords(t domain.SlideType) []string {
	switch t {
	case domain.SlideTitle:
		return []string{"title", "opening"}
	case domain.SlideSection:
		return []string{"section", "divider"}
	case domain.SlideConclusion:
		return []string{"conclusion", "closing", "summary"}
	case domain.SlideData:
		return []string{"data"}
	case domain.SlideDiagram:
		return []string{"diagram"}
	default:
		return nil
	}
}
