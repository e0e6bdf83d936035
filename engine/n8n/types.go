// Package n8n is the client for the external n8n workflow engine running the
// storytelling analysis graph. It covers the four operations this server
// needs (upload, start, fetch, list) and the translation of raw execution
// records into normalized statuses.
package n8n

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ExecutionID identifies one run of the workflow graph. n8n serializes ids as
// either JSON strings or numbers depending on the endpoint.
type ExecutionID string

func (id *ExecutionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ExecutionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("execution id must be a string or number: %w", err)
	}
	*id = ExecutionID(n.String())
	return nil
}

func (id ExecutionID) String() string {
	return string(id)
}

// Execution is the raw execution record returned by the engine.
type Execution struct {
	ID        ExecutionID    `json:"id"`
	Finished  bool           `json:"finished"`
	Mode      string         `json:"mode,omitempty"`
	StartedAt *time.Time     `json:"startedAt,omitempty"`
	StoppedAt *time.Time     `json:"stoppedAt,omitempty"`
	Data      *ExecutionData `json:"data,omitempty"`
}

// ExecutionData wraps the per-run result payload.
type ExecutionData struct {
	ResultData *ResultData `json:"resultData,omitempty"`
}

// ResultData carries per-node run records and, on abnormal stops, the
// engine's own error.
type ResultData struct {
	RunData          map[string][]NodeRun `json:"runData,omitempty"`
	LastNodeExecuted string               `json:"lastNodeExecuted,omitempty"`
	Error            *ExecutionError      `json:"error,omitempty"`
}

// ExecutionError is the error the engine reports when an execution stops
// abnormally.
type ExecutionError struct {
	Message string `json:"message"`
}

// NodeRun is one completed run of a single graph node. StartTime is
// milliseconds since the Unix epoch.
type NodeRun struct {
	StartTime     float64      `json:"startTime"`
	ExecutionTime float64      `json:"executionTime"`
	Data          *NodeRunData `json:"data,omitempty"`
}

// NodeRunData holds the node's output items. n8n nests items under the main
// connection as data.main[output][item].json.
type NodeRunData struct {
	Main [][]NodeOutput `json:"main,omitempty"`
}

// NodeOutput is a single output item of a node run.
type NodeOutput struct {
	JSON json.RawMessage `json:"json,omitempty"`
}
