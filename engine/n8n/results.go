package n8n

import (
	"encoding/json"

	"github.com/storymesh/story-mcp/engine/story"
)

// ExtractResults pulls the workflow's output payload out of an execution
// record: the first output item of the last executed node. Returns false when
// the record carries no usable payload.
func ExtractResults(exec *Execution) (*story.Results, bool) {
	output, ok := lastNodeOutput(exec)
	if !ok {
		return nil, false
	}
	results := &story.Results{}
	if err := json.Unmarshal(output, results); err != nil {
		return nil, false
	}
	if results.Analysis == nil && results.Deliverables == nil {
		// Some workflow revisions emit the analysis unwrapped.
		analysis := &story.Analysis{}
		if err := json.Unmarshal(output, analysis); err != nil {
			return nil, false
		}
		if analysisEmpty(analysis) {
			return nil, false
		}
		results.Analysis = analysis
	}
	return results, true
}

func lastNodeOutput(exec *Execution) (json.RawMessage, bool) {
	if exec == nil || exec.Data == nil || exec.Data.ResultData == nil {
		return nil, false
	}
	rd := exec.Data.ResultData
	runs, ok := rd.RunData[rd.LastNodeExecuted]
	if !ok || len(runs) == 0 {
		return nil, false
	}
	last := runs[len(runs)-1]
	if last.Data == nil || len(last.Data.Main) == 0 || len(last.Data.Main[0]) == 0 {
		return nil, false
	}
	output := last.Data.Main[0][0].JSON
	if len(output) == 0 {
		return nil, false
	}
	return output, true
}

func analysisEmpty(a *story.Analysis) bool {
	return len(a.People) == 0 && len(a.Places) == 0 && len(a.Purpose) == 0 &&
		len(a.Plot) == 0 && len(a.Soundbites) == 0 && a.OverallNarrative == ""
}
