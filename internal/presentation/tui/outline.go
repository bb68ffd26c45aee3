package tui

import (
	"fmt"
	"strings"

	"github.com/deckwright/deckwright/pkg/domain"
)

// OutlineMarkdown renders an outline as markdown for terminal display.
// affected limits the slide detail to the named ids; empty shows everything.
func OutlineMarkdown(o *domain.Outline, affected []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", o.MainTitle)
	if o.OverallTheme != "" {
		fmt.Fprintf(&b, "*%s*", o.OverallTheme)
		if o.TargetAudience != "" {
			fmt.Fprintf(&b, " — for %s", o.TargetAudience)
		}
		b.WriteString("\n\n")
	}

	show := make(map[string]bool, len(affected))
	for _, id := range affected {
		show[id] = true
	}

	for _, s := range o.Slides {
		fmt.Fprintf(&b, "## %d. %s\n\n", s.SlideNumber, s.Title)
		if len(affected) > 0 && !show[s.SlideID] {
			continue
		}
		if s.Narrative != "" {
			b.WriteString(s.Narrative + "\n\n")
		}
		for _, p := range s.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		if len(s.KeyPoints) > 0 {
			b.WriteString("\n")
		}
		briefs := []struct{ label, text string }{
			{"Analytics", s.AnalyticsNeeded},
			{"Visuals", s.VisualsNeeded},
			{"Diagrams", s.DiagramsNeeded},
			{"Tables", s.TablesNeeded},
		}
		for _, br := range briefs {
			if br.text != "" {
				fmt.Fprintf(&b, "> **%s:** %s\n\n", br.label, br.text)
			}
		}
	}
	return b.String()
}
