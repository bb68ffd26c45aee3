package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutline(n int) *Outline {
	o := &Outline{MainTitle: "Test Deck", OverallTheme: "Informative"}
	for i := 0; i < n; i++ {
		o.Slides = append(o.Slides, Slide{
			SlideID:   MintSlideID(),
			SlideType: SlideContent,
			Title:     "Slide",
			Narrative: "n",
		})
	}
	o.Renumber()
	return o
}

func TestOutline_RenumberAndValidate(t *testing.T) {
	o := testOutline(3)
	require.NoError(t, o.Validate())

	// Knock numbering out of shape, then restore.
	o.Slides[1].SlideNumber = 99
	assert.Error(t, o.Validate())
	o.Renumber()
	assert.NoError(t, o.Validate())
}

func TestOutline_Validate_DuplicateID(t *testing.T) {
	o := testOutline(2)
	o.Slides[1].SlideID = o.Slides[0].SlideID
	assert.Error(t, o.Validate())
}

func TestOutline_EmptyIsValid(t *testing.T) {
	o := &Outline{MainTitle: "Empty"}
	assert.NoError(t, o.Validate())
	o.Renumber()
	assert.NoError(t, o.Validate())
}

func TestOutline_MintID_AvoidsRetired(t *testing.T) {
	o := testOutline(1)
	o.RetiredSlideIDs = []string{"slide_dead0001"}
	seen := map[string]bool{o.Slides[0].SlideID: true, "slide_dead0001": true}
	for i := 0; i < 100; i++ {
		id := o.MintID()
		assert.False(t, seen[id], "minted id %q collides", id)
	}
}

func TestOutline_Clone_Isolated(t *testing.T) {
	o := testOutline(2)
	o.Slides[0].KeyPoints = []string{"a"}
	c := o.Clone()
	c.Slides[0].KeyPoints[0] = "mutated"
	c.Slides[1].Title = "changed"
	assert.Equal(t, "a", o.Slides[0].KeyPoints[0])
	assert.Equal(t, "Slide", o.Slides[1].Title)
}

func TestOutline_Lint_RepeatedLayout(t *testing.T) {
	o := testOutline(4)
	for i := range o.Slides {
		o.Slides[i].StructurePreference = "two-column"
	}
	warnings := o.Lint()
	require.NotEmpty(t, warnings)

	o.Slides[1].StructurePreference = "visual-centered"
	o.Slides[3].StructurePreference = ""
	assert.Empty(t, o.Lint())
}

func TestSlide_Normalize(t *testing.T) {
	s := Slide{
		SlideType: "bogus",
		Title:     "  Padded  ",
		KeyPoints: []string{"one", "", "two", "three", "four", "five", "six"},
		VisualsNeeded: "a hero image of a data center",
	}
	s.Normalize()

	assert.Equal(t, SlideMixed, s.SlideType)
	assert.Equal(t, "Padded", s.Title)
	assert.Len(t, s.KeyPoints, MaxKeyPoints)

	// Free-text brief gets wrapped into the three-part format.
	b, ok := ParseBrief(s.VisualsNeeded)
	require.True(t, ok)
	assert.Equal(t, "a hero image of a data center", b.Content)
}
