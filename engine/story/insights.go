package story

import (
	"fmt"
	"strings"
)

// InsightType selects which slice of the analysis to return.
type InsightType string

const (
	InsightPeople         InsightType = "people"
	InsightPlaces         InsightType = "places"
	InsightPurpose        InsightType = "purpose"
	InsightPlot           InsightType = "plot"
	InsightSoundbites     InsightType = "soundbites"
	InsightTransformation InsightType = "transformation"
	InsightAll            InsightType = "all"
)

// soundbiteImpactThreshold: soundbites scored strictly above this value count
// as transformation key moments.
const soundbiteImpactThreshold = 7

// ValidInsightType reports whether t names a known insight slice.
func ValidInsightType(t InsightType) bool {
	switch t {
	case InsightPeople, InsightPlaces, InsightPurpose, InsightPlot,
		InsightSoundbites, InsightTransformation, InsightAll:
		return true
	}
	return false
}

// Insights returns the requested slice of the analysis. "all" returns every
// populated section unmodified; "transformation" is a derived filter view.
func Insights(a *Analysis, insightType InsightType) (map[string]any, error) {
	if a == nil {
		return nil, fmt.Errorf("no analysis available")
	}
	switch insightType {
	case InsightPeople:
		return map[string]any{"people": a.People}, nil
	case InsightPlaces:
		return map[string]any{"places": a.Places}, nil
	case InsightPurpose:
		return map[string]any{"purpose": a.Purpose}, nil
	case InsightPlot:
		return map[string]any{"plot": a.Plot}, nil
	case InsightSoundbites:
		return map[string]any{"soundbites": a.Soundbites}, nil
	case InsightTransformation:
		return transformationView(a), nil
	case InsightAll:
		return allView(a), nil
	default:
		return nil, fmt.Errorf("unknown insight type %q", insightType)
	}
}

// allView returns every section present in the source analysis, unmodified.
func allView(a *Analysis) map[string]any {
	view := make(map[string]any)
	if a.People != nil {
		view["people"] = a.People
	}
	if a.Places != nil {
		view["places"] = a.Places
	}
	if a.Purpose != nil {
		view["purpose"] = a.Purpose
	}
	if a.Plot != nil {
		view["plot"] = a.Plot
	}
	if a.Soundbites != nil {
		view["soundbites"] = a.Soundbites
	}
	if a.OverallNarrative != "" {
		view["overallNarrative"] = a.OverallNarrative
	}
	return view
}

// transformationView filters the analysis down to its transformation arc:
// plot events whose significance mentions a transformation, each character's
// arc, and the soundbites with the strongest emotional impact.
func transformationView(a *Analysis) map[string]any {
	plot := make([]PlotEvent, 0)
	for _, event := range a.Plot {
		if strings.Contains(event.Significance, "transformation") {
			plot = append(plot, event)
		}
	}
	people := make([]map[string]any, 0, len(a.People))
	for _, person := range a.People {
		people = append(people, map[string]any{
			"character":      person.Name,
			"transformation": person.Transformation,
		})
	}
	soundbites := make([]Soundbite, 0)
	for _, sb := range a.Soundbites {
		if sb.EmotionalImpact > soundbiteImpactThreshold {
			soundbites = append(soundbites, sb)
		}
	}
	return map[string]any{
		"plot":       plot,
		"people":     people,
		"soundbites": soundbites,
	}
}

// Summary renders a short human-readable digest of a completed analysis.
func (a *Analysis) Summary() string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf(
		"Analysis complete: %d soundbites, %d characters, %d purpose themes, %d places.",
		len(a.Soundbites), len(a.People), len(a.Purpose), len(a.Places),
	)
}
