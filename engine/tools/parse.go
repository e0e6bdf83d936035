package tools

import (
	"fmt"

	"github.com/storymesh/story-mcp/engine/story"
)

// parseThemes validates and defaults the themes argument.
func parseThemes(args map[string]any) ([]story.Theme, error) {
	entries, err := sliceArg(args, "themes")
	if err != nil {
		return nil, err
	}
	themes := make([]story.Theme, 0, len(entries))
	for i, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("themes[%d] must be an object with a name", i)
		}
		name, err := stringArg(entry, "name")
		if err != nil {
			return nil, fmt.Errorf("themes[%d]: %v", i, err)
		}
		priority := story.Priority(optionalString(entry, "priority", string(story.PriorityMedium)))
		switch priority {
		case story.PriorityHigh, story.PriorityMedium, story.PriorityLow:
		default:
			return nil, fmt.Errorf("themes[%d]: priority must be one of high, medium, low", i)
		}
		themes = append(themes, story.Theme{
			Name:        name,
			Description: optionalString(entry, "description", ""),
			Priority:    priority,
		})
	}
	return themes, nil
}

// parseOutputOptions applies defaults for anything the caller omitted: every
// deliverable on, language English.
func parseOutputOptions(args map[string]any) story.OutputOptions {
	options := story.DefaultOutputOptions()
	raw, ok := args["outputOptions"].(map[string]any)
	if !ok {
		return options
	}
	options.Format = optionalString(raw, "format", options.Format)
	options.IncludeTranscript = optionalBool(raw, "includeTranscript", options.IncludeTranscript)
	options.IncludeSoundbites = optionalBool(raw, "includeSoundbites", options.IncludeSoundbites)
	options.IncludeEditSuggestions = optionalBool(raw, "includeEditSuggestions", options.IncludeEditSuggestions)
	options.Language = optionalString(raw, "language", options.Language)
	return options
}
