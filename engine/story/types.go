// Package story holds the domain model for storytelling media analysis: the
// themes and media files sent to the workflow engine and the 4P analysis
// (People, Places, Purpose, Plot) it produces. The analysis is owned entirely
// by the engine; this package only reads and reshapes it.
package story

// Priority ranks how strongly a theme should steer the analysis.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Theme is a caller-supplied story theme. Immutable input.
type Theme struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// MediaFile describes one media input. Size and Duration are placeholders
// until the engine inspects the file.
type MediaFile struct {
	Filename string  `json:"filename"`
	Filepath string  `json:"filepath"`
	Size     int64   `json:"size"`
	MimeType string  `json:"mimeType"`
	Duration float64 `json:"duration,omitempty"`
}

// OutputOptions controls which deliverables the workflow produces.
type OutputOptions struct {
	Format                 string `json:"format,omitempty"`
	IncludeTranscript      bool   `json:"includeTranscript"`
	IncludeSoundbites      bool   `json:"includeSoundbites"`
	IncludeEditSuggestions bool   `json:"includeEditSuggestions"`
	Language               string `json:"language"`
}

// DefaultOutputOptions returns the options applied when the caller omits them.
func DefaultOutputOptions() OutputOptions {
	return OutputOptions{
		IncludeTranscript:      true,
		IncludeSoundbites:      true,
		IncludeEditSuggestions: true,
		Language:               "en",
	}
}

// Person is a character identified by the analysis.
type Person struct {
	Name           string `json:"name"`
	Role           string `json:"role,omitempty"`
	Description    string `json:"description,omitempty"`
	Transformation string `json:"transformation,omitempty"`
}

// Place is a location identified by the analysis.
type Place struct {
	Name         string `json:"name"`
	Significance string `json:"significance,omitempty"`
	Description  string `json:"description,omitempty"`
}

// PurposeEntry is one thematic purpose extracted from the material.
type PurposeEntry struct {
	Theme       string `json:"theme"`
	Description string `json:"description,omitempty"`
}

// PlotEvent is one event on the narrative timeline.
type PlotEvent struct {
	Event        string `json:"event"`
	Timestamp    string `json:"timestamp,omitempty"`
	Significance string `json:"significance,omitempty"`
}

// Soundbite is a quotable moment with timing and scoring metadata.
type Soundbite struct {
	Text            string  `json:"text"`
	StartTime       float64 `json:"startTime"`
	EndTime         float64 `json:"endTime"`
	Speaker         string  `json:"speaker,omitempty"`
	EmotionalImpact float64 `json:"emotionalImpact"`
	PCategory       string  `json:"pCategory,omitempty"`
	Theme           string  `json:"theme,omitempty"`
}

// Analysis is the structured 4P output produced by the workflow engine.
type Analysis struct {
	People           []Person       `json:"people,omitempty"`
	Places           []Place        `json:"places,omitempty"`
	Purpose          []PurposeEntry `json:"purpose,omitempty"`
	Plot             []PlotEvent    `json:"plot,omitempty"`
	Soundbites       []Soundbite    `json:"soundbites,omitempty"`
	OverallNarrative string         `json:"overallNarrative,omitempty"`
}

// Results bundles the analysis with any rendered deliverables.
type Results struct {
	Analysis     *Analysis      `json:"analysis,omitempty"`
	Deliverables map[string]any `json:"deliverables,omitempty"`
}

// JobStatus is the normalized view of one workflow execution. The engine owns
// the underlying state; instances of this type are a best-effort snapshot,
// last-write-wins on each poll.
type JobStatus struct {
	JobID       string   `json:"jobId"`
	Status      string   `json:"status"`
	Progress    int      `json:"progress"`
	CurrentStep string   `json:"currentStep"`
	Results     *Results `json:"results,omitempty"`
	Error       string   `json:"error,omitempty"`
}
