package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysis() *Analysis {
	return &Analysis{
		People: []Person{
			{Name: "Maria", Role: "protagonist", Transformation: "from doubt to conviction"},
			{Name: "Jonas", Role: "mentor", Transformation: "learns to let go"},
		},
		Places: []Place{
			{Name: "The harbor", Significance: "where the journey begins"},
		},
		Purpose: []PurposeEntry{
			{Theme: "Family", Description: "holding together under pressure"},
		},
		Plot: []PlotEvent{
			{Event: "Maria leaves home", Significance: "sets the transformation in motion"},
			{Event: "Storm at sea", Significance: "raises the stakes"},
			{Event: "Return to the harbor", Significance: "completes her transformation"},
		},
		Soundbites: []Soundbite{
			{Text: "I never thought I could do this", EmotionalImpact: 9, Speaker: "Maria"},
			{Text: "The weather looked fine that morning", EmotionalImpact: 3, Speaker: "Jonas"},
			{Text: "We almost turned back", EmotionalImpact: 7, Speaker: "Maria"},
		},
		OverallNarrative: "A story of leaving and returning.",
	}
}

func TestInsights(t *testing.T) {
	t.Run("Should return all populated sections unmodified for type all", func(t *testing.T) {
		a := sampleAnalysis()

		view, err := Insights(a, InsightAll)

		require.NoError(t, err)
		assert.Equal(t, a.People, view["people"])
		assert.Equal(t, a.Places, view["places"])
		assert.Equal(t, a.Purpose, view["purpose"])
		assert.Equal(t, a.Plot, view["plot"])
		assert.Equal(t, a.Soundbites, view["soundbites"])
		assert.Equal(t, a.OverallNarrative, view["overallNarrative"])
	})

	t.Run("Should omit absent sections for type all", func(t *testing.T) {
		a := &Analysis{People: []Person{{Name: "Maria"}}}

		view, err := Insights(a, InsightAll)

		require.NoError(t, err)
		assert.Contains(t, view, "people")
		assert.NotContains(t, view, "places")
		assert.NotContains(t, view, "soundbites")
		assert.NotContains(t, view, "overallNarrative")
	})

	t.Run("Should return a single section for a specific type", func(t *testing.T) {
		a := sampleAnalysis()

		view, err := Insights(a, InsightPlaces)

		require.NoError(t, err)
		assert.Len(t, view, 1)
		assert.Equal(t, a.Places, view["places"])
	})

	t.Run("Should fail on an unknown insight type", func(t *testing.T) {
		_, err := Insights(sampleAnalysis(), InsightType("sentiment"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "sentiment")
	})

	t.Run("Should fail when no analysis is available", func(t *testing.T) {
		_, err := Insights(nil, InsightAll)

		require.Error(t, err)
	})
}

func TestTransformationView(t *testing.T) {
	t.Run("Should keep only plot events whose significance mentions transformation", func(t *testing.T) {
		view, err := Insights(sampleAnalysis(), InsightTransformation)

		require.NoError(t, err)
		plot, ok := view["plot"].([]PlotEvent)
		require.True(t, ok)
		require.Len(t, plot, 2)
		assert.Equal(t, "Maria leaves home", plot[0].Event)
		assert.Equal(t, "Return to the harbor", plot[1].Event)
	})

	t.Run("Should map people to character and transformation", func(t *testing.T) {
		view, err := Insights(sampleAnalysis(), InsightTransformation)

		require.NoError(t, err)
		people, ok := view["people"].([]map[string]any)
		require.True(t, ok)
		require.Len(t, people, 2)
		assert.Equal(t, "Maria", people[0]["character"])
		assert.Equal(t, "from doubt to conviction", people[0]["transformation"])
	})

	t.Run("Should keep only soundbites with emotional impact strictly above seven", func(t *testing.T) {
		view, err := Insights(sampleAnalysis(), InsightTransformation)

		require.NoError(t, err)
		soundbites, ok := view["soundbites"].([]Soundbite)
		require.True(t, ok)
		require.Len(t, soundbites, 1)
		assert.Equal(t, "I never thought I could do this", soundbites[0].Text)
	})
}

func TestValidInsightType(t *testing.T) {
	t.Run("Should accept every declared type and reject others", func(t *testing.T) {
		for _, valid := range []InsightType{
			InsightPeople, InsightPlaces, InsightPurpose, InsightPlot,
			InsightSoundbites, InsightTransformation, InsightAll,
		} {
			assert.True(t, ValidInsightType(valid), "type %q", valid)
		}
		assert.False(t, ValidInsightType(InsightType("sentiment")))
	})
}

func TestAnalysisSummary(t *testing.T) {
	t.Run("Should count soundbites characters purposes and places", func(t *testing.T) {
		summary := sampleAnalysis().Summary()

		assert.Equal(t, "Analysis complete: 3 soundbites, 2 characters, 1 purpose themes, 1 places.", summary)
	})

	t.Run("Should return empty string for nil analysis", func(t *testing.T) {
		var a *Analysis
		assert.Empty(t, a.Summary())
	})
}
