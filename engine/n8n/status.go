package n8n

// Status is the normalized lifecycle state of an execution.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Default step labels when the run data gives nothing better.
const (
	StepStarting   = "Starting..."
	StepProcessing = "Processing..."
)

// Graph describes the deployed workflow graph: how many nodes a full run
// completes and the human-readable label for each node. Injected from
// configuration so it can track edits to the remote workflow.
type Graph struct {
	ExpectedNodeCount int
	NodeLabels        map[string]string
}

// ExecutionStatus is the normalized view of one execution record.
type ExecutionStatus struct {
	ID          string `json:"jobId"`
	Status      Status `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep"`
	Error       string `json:"error,omitempty"`
}

// MapStatus translates a raw execution record into a normalized status. Pure
// over already-fetched data: absent fields degrade to defaults, it never
// fails.
//
// A present stop timestamp means the execution stopped abnormally and wins
// over the finished flag.
func MapStatus(exec *Execution, graph *Graph) ExecutionStatus {
	status := ExecutionStatus{
		Status:      StatusProcessing,
		CurrentStep: StepStarting,
	}
	if exec == nil {
		return status
	}
	status.ID = exec.ID.String()

	runData := executionRunData(exec)
	switch {
	case exec.StoppedAt != nil:
		status.Status = StatusFailed
		status.Error = executionErrorMessage(exec)
	case exec.Finished:
		status.Status = StatusCompleted
	}

	status.Progress = progressFor(len(runData), graph)
	status.CurrentStep = currentStepFor(runData, graph)
	return status
}

// progressFor approximates completion as the fraction of graph nodes that
// have run data, clamped to 100.
func progressFor(completedNodes int, graph *Graph) int {
	if graph == nil || graph.ExpectedNodeCount <= 0 || completedNodes <= 0 {
		return 0
	}
	progress := completedNodes * 100 / graph.ExpectedNodeCount
	if progress > 100 {
		return 100
	}
	return progress
}

// currentStepFor returns the label of the most recently started node, falling
// back to defaults when the node is unknown or nothing has run yet.
func currentStepFor(runData map[string][]NodeRun, graph *Graph) string {
	latestNode := ""
	latestStart := -1.0
	for node, runs := range runData {
		for _, run := range runs {
			if run.StartTime > latestStart {
				latestStart = run.StartTime
				latestNode = node
			}
		}
	}
	if latestNode == "" {
		return StepStarting
	}
	if graph != nil {
		if label, ok := graph.NodeLabels[latestNode]; ok {
			return label
		}
	}
	return StepProcessing
}

func executionRunData(exec *Execution) map[string][]NodeRun {
	if exec.Data == nil || exec.Data.ResultData == nil {
		return nil
	}
	return exec.Data.ResultData.RunData
}

func executionErrorMessage(exec *Execution) string {
	if exec.Data == nil || exec.Data.ResultData == nil || exec.Data.ResultData.Error == nil {
		return ""
	}
	return exec.Data.ResultData.Error.Message
}
