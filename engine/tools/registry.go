package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names exposed over MCP.
const (
	ToolStartStoryAnalysis = "start_story_analysis"
	ToolGetAnalysisStatus  = "get_analysis_status"
	ToolListAnalysisJobs   = "list_analysis_jobs"
	ToolUploadMediaFiles   = "upload_media_files"
	ToolGetStoryInsights   = "get_story_insights"
)

// Register declares the five storytelling tools on the MCP server and binds
// each to its handler.
func (s *Service) Register(srv *server.MCPServer) {
	srv.AddTool(startStoryAnalysisTool(), s.instrument(ToolStartStoryAnalysis, s.handleStartStoryAnalysis))
	srv.AddTool(getAnalysisStatusTool(), s.instrument(ToolGetAnalysisStatus, s.handleGetAnalysisStatus))
	srv.AddTool(listAnalysisJobsTool(), s.instrument(ToolListAnalysisJobs, s.handleListAnalysisJobs))
	srv.AddTool(uploadMediaFilesTool(), s.instrument(ToolUploadMediaFiles, s.handleUploadMediaFiles))
	srv.AddTool(getStoryInsightsTool(), s.instrument(ToolGetStoryInsights, s.handleGetStoryInsights))
}

func startStoryAnalysisTool() mcp.Tool {
	return mcp.Tool{
		Name: ToolStartStoryAnalysis,
		Description: "Start a multi-stage storytelling analysis of media files. " +
			"Returns a job id to poll with get_analysis_status.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"themes": map[string]any{
					"type":        "array",
					"description": "Story themes to steer the analysis",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name": map[string]any{
								"type":        "string",
								"description": "Theme name",
							},
							"description": map[string]any{
								"type":        "string",
								"description": "What this theme covers",
							},
							"priority": map[string]any{
								"type":        "string",
								"enum":        []string{"high", "medium", "low"},
								"description": "How strongly to weight this theme",
								"default":     "medium",
							},
						},
						"required": []string{"name"},
					},
				},
				"fileUrls": map[string]any{
					"type":        "array",
					"description": "URLs of the media files to analyze",
					"items":       map[string]any{"type": "string"},
				},
				"outputOptions": map[string]any{
					"type":        "object",
					"description": "Which deliverables to produce",
					"properties": map[string]any{
						"format": map[string]any{
							"type":        "string",
							"description": "Preferred deliverable format",
						},
						"includeTranscript": map[string]any{
							"type":    "boolean",
							"default": true,
						},
						"includeSoundbites": map[string]any{
							"type":    "boolean",
							"default": true,
						},
						"includeEditSuggestions": map[string]any{
							"type":    "boolean",
							"default": true,
						},
						"language": map[string]any{
							"type":    "string",
							"default": "en",
						},
					},
				},
			},
			Required: []string{"themes", "fileUrls"},
		},
	}
}

func getAnalysisStatusTool() mcp.Tool {
	return mcp.Tool{
		Name: ToolGetAnalysisStatus,
		Description: "Get the current status of an analysis job: progress, current step, " +
			"and, once completed, the full results with a short summary.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"jobId": map[string]any{
					"type":        "string",
					"description": "Job id returned by start_story_analysis",
				},
			},
			Required: []string{"jobId"},
		},
	}
}

func listAnalysisJobsTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolListAnalysisJobs,
		Description: "List all analysis jobs the workflow engine is currently running.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}
}

func uploadMediaFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolUploadMediaFiles,
		Description: "Upload media files to the workflow engine. Content must be base64 encoded.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"files": map[string]any{
					"type":        "array",
					"description": "Files to upload",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"filename": map[string]any{
								"type":        "string",
								"description": "File name including extension",
							},
							"content": map[string]any{
								"type":        "string",
								"description": "Base64-encoded file content",
							},
						},
						"required": []string{"filename", "content"},
					},
				},
			},
			Required: []string{"files"},
		},
	}
}

func getStoryInsightsTool() mcp.Tool {
	return mcp.Tool{
		Name: ToolGetStoryInsights,
		Description: "Get a slice of a completed analysis: people, places, purpose, plot, " +
			"soundbites, the derived transformation view, or everything at once.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"jobId": map[string]any{
					"type":        "string",
					"description": "Job id of a completed analysis",
				},
				"insightType": map[string]any{
					"type": "string",
					"enum": []string{
						"people", "places", "purpose", "plot",
						"soundbites", "transformation", "all",
					},
					"description": "Which slice of the analysis to return",
				},
			},
			Required: []string{"jobId", "insightType"},
		},
	}
}
