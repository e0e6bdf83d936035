package tools

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/storymesh/story-mcp/engine/n8n"
	"github.com/storymesh/story-mcp/engine/story"
	"github.com/storymesh/story-mcp/pkg/logger"
)

func (s *Service) handleStartStoryAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := logger.FromContext(ctx)
	args := req.GetArguments()

	themes, err := parseThemes(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	fileURLs, err := stringSliceArg(args, "fileUrls")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	options := parseOutputOptions(args)

	files := story.MediaFilesFromURLs(fileURLs)
	jobID, err := s.client.StartWorkflow(ctx, &n8n.StartRequest{
		Files:         files,
		Themes:        themes,
		OutputOptions: options,
	})
	if err != nil {
		log.Error("Failed to start analysis", "error", err)
		return errorResult(err.Error()), nil
	}

	s.jobs.Put(&story.JobStatus{
		JobID:       jobID,
		Status:      string(n8n.StatusPending),
		Progress:    0,
		CurrentStep: n8n.StepStarting,
	})

	themeNames := make([]string, 0, len(themes))
	for _, theme := range themes {
		themeNames = append(themeNames, theme.Name)
	}
	return successResult(map[string]any{
		"jobId":             jobID,
		"themes":            themeNames,
		"fileCount":         len(files),
		"estimatedDuration": story.EstimateProcessingTime(len(files)),
		"message": fmt.Sprintf(
			"Analysis of %d file(s) started. Poll %s with this job id for progress.",
			len(files), ToolGetAnalysisStatus,
		),
	}), nil
}

func (s *Service) handleGetAnalysisStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID, err := stringArg(req.GetArguments(), "jobId")
	if err != nil {
		return errorResult(err.Error()), nil
	}

	job, err := s.refreshJob(ctx, jobID)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	payload := map[string]any{
		"jobId":       job.JobID,
		"status":      job.Status,
		"progress":    job.Progress,
		"currentStep": job.CurrentStep,
	}
	if job.Error != "" {
		payload["error"] = job.Error
	}
	if job.Status == string(n8n.StatusCompleted) && job.Results != nil {
		payload["results"] = job.Results
		payload["summary"] = job.Results.Analysis.Summary()
	}
	return successResult(payload), nil
}

func (s *Service) handleListAnalysisJobs(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	statuses, err := s.client.ListActiveExecutions(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list active executions", "error", err)
		return errorResult(err.Error()), nil
	}
	jobs := make([]map[string]any, 0, len(statuses))
	for _, status := range statuses {
		jobs = append(jobs, map[string]any{
			"jobId":       status.ID,
			"status":      status.Status,
			"progress":    status.Progress,
			"currentStep": status.CurrentStep,
		})
	}
	return successResult(map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	}), nil
}

func (s *Service) handleUploadMediaFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := sliceArg(req.GetArguments(), "files")
	if err != nil {
		return errorResult(err.Error()), nil
	}

	uploads := make([]n8n.UploadFile, 0, len(entries))
	for i, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			return errorResult(fmt.Sprintf("files[%d] must be an object with filename and content", i)), nil
		}
		filename, err := stringArg(entry, "filename")
		if err != nil {
			return errorResult(fmt.Sprintf("files[%d]: %v", i, err)), nil
		}
		encoded, err := stringArg(entry, "content")
		if err != nil {
			return errorResult(fmt.Sprintf("files[%d]: %v", i, err)), nil
		}
		content, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return errorResult(fmt.Sprintf("file %q: content is not valid base64", filename)), nil
		}
		uploads = append(uploads, n8n.UploadFile{
			Filename:    filename,
			Content:     content,
			ContentType: mimetype.Detect(content).String(),
		})
	}

	results, err := s.client.UploadAll(ctx, uploads)
	if err != nil {
		logger.FromContext(ctx).Error("Upload batch failed", "error", err)
		return errorResult(err.Error()), nil
	}
	return successResult(map[string]any{
		"files": results,
		"count": len(results),
	}), nil
}

func (s *Service) handleGetStoryInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	jobID, err := stringArg(args, "jobId")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	insightType, err := stringArg(args, "insightType")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if !story.ValidInsightType(story.InsightType(insightType)) {
		return errorResult(fmt.Sprintf("unknown insight type %q", insightType)), nil
	}

	job, ok := s.completedJob(jobID)
	if !ok {
		// The cache may be stale or empty; the engine is the source of truth.
		refreshed, err := s.refreshJob(ctx, jobID)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		job = refreshed
	}
	if job.Status != string(n8n.StatusCompleted) {
		return errorResult(fmt.Sprintf(
			"job %s is %s; insights are available once the analysis completes", jobID, job.Status,
		)), nil
	}
	if job.Results == nil || job.Results.Analysis == nil {
		return errorResult(fmt.Sprintf("job %s completed without analysis results", jobID)), nil
	}

	insights, err := story.Insights(job.Results.Analysis, story.InsightType(insightType))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return successResult(map[string]any{
		"jobId":       jobID,
		"insightType": insightType,
		"insights":    insights,
	}), nil
}

// refreshJob polls the engine for the execution, maps it to a normalized job
// snapshot, and caches it last-write-wins.
func (s *Service) refreshJob(ctx context.Context, jobID string) (*story.JobStatus, error) {
	exec, err := s.client.GetExecution(ctx, jobID)
	if err != nil {
		return nil, err
	}
	status := n8n.MapStatus(exec, s.client.Graph())
	job := &story.JobStatus{
		JobID:       jobID,
		Status:      string(status.Status),
		Progress:    status.Progress,
		CurrentStep: status.CurrentStep,
		Error:       status.Error,
	}
	if status.Status == n8n.StatusCompleted {
		if results, ok := n8n.ExtractResults(exec); ok {
			job.Results = results
		}
	}
	s.jobs.Put(job)
	return job, nil
}

func (s *Service) completedJob(jobID string) (*story.JobStatus, bool) {
	job, ok := s.jobs.Get(jobID)
	if !ok || job.Status != string(n8n.StatusCompleted) || job.Results == nil {
		return nil, false
	}
	return job, true
}
