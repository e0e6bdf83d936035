package n8n

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storymesh/story-mcp/engine/story"
	"github.com/storymesh/story-mcp/pkg/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.EngineConfig{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		Timeout:           5 * time.Second,
		UploadConcurrency: 2,
	}, Graph{ExpectedNodeCount: 4})
}

// retryingClient allows two re-attempts with near-zero backoff.
func retryingClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.EngineConfig{
		BaseURL:           srv.URL,
		APIKey:            "test-key",
		Timeout:           5 * time.Second,
		RetryCount:        2,
		RetryWaitTime:     time.Millisecond,
		RetryMaxWaitTime:  5 * time.Millisecond,
		UploadConcurrency: 2,
	}, Graph{ExpectedNodeCount: 4})
}

func TestStartWorkflow(t *testing.T) {
	t.Run("Should post the normalized request and return the execution id", func(t *testing.T) {
		var received StartRequest
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/webhook/storytelling-analysis", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("X-N8N-API-KEY"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"executionId":"exec-123"}`))
		}))

		id, err := client.StartWorkflow(context.Background(), &StartRequest{
			Files:         []story.MediaFile{{Filename: "a.mp4", MimeType: "video/mp4"}},
			Themes:        []story.Theme{{Name: "Family"}},
			OutputOptions: story.DefaultOutputOptions(),
		})

		require.NoError(t, err)
		assert.Equal(t, "exec-123", id)
		assert.Equal(t, "Family", received.Themes[0].Name)
		assert.Equal(t, "en", received.OutputOptions.Language)
	})

	t.Run("Should accept numeric execution ids", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"executionId":4711}`))
		}))

		id, err := client.StartWorkflow(context.Background(), &StartRequest{})

		require.NoError(t, err)
		assert.Equal(t, "4711", id)
	})

	t.Run("Should wrap upstream HTTP failures with the operation name", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))

		_, err := client.StartWorkflow(context.Background(), &StartRequest{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to start storytelling workflow")
	})

	t.Run("Should retry a transient engine failure with the full request body", func(t *testing.T) {
		var attempts atomic.Int32
		bodies := make(chan StartRequest, 2)
		client := retryingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body StartRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			bodies <- body
			if attempts.Add(1) == 1 {
				http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"executionId":"exec-retry"}`))
		}))

		id, err := client.StartWorkflow(context.Background(), &StartRequest{
			Files:  []story.MediaFile{{Filename: "a.mp4", MimeType: "video/mp4"}},
			Themes: []story.Theme{{Name: "Family"}},
		})

		require.NoError(t, err)
		assert.Equal(t, "exec-retry", id)
		assert.Equal(t, int32(2), attempts.Load())
		first, second := <-bodies, <-bodies
		require.Len(t, first.Files, 1)
		assert.Equal(t, first, second)
	})

	t.Run("Should fail when the engine returns no execution id", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}))

		_, err := client.StartWorkflow(context.Background(), &StartRequest{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no execution id")
	})
}

func TestUpload(t *testing.T) {
	t.Run("Should post multipart content and return the server-assigned path", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/webhook/upload-file", r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "clip.mp3", header.Filename)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"filePath":"/data/uploads/clip.mp3"}`))
		}))

		result, err := client.Upload(context.Background(), UploadFile{
			Filename:    "clip.mp3",
			Content:     []byte("audio-bytes"),
			ContentType: "audio/mp3",
		})

		require.NoError(t, err)
		assert.Equal(t, "/data/uploads/clip.mp3", result.Path)
		assert.Equal(t, int64(len("audio-bytes")), result.Size)
		assert.Equal(t, "audio/mp3", result.MimeType)
	})

	t.Run("Should retry a transient failure with the full file content", func(t *testing.T) {
		content := []byte("full-audio-bytes")
		var attempts atomic.Int32
		received := make(chan []byte, 2)
		client := retryingClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, _, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			received <- data
			if attempts.Add(1) == 1 {
				http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"filePath":"/data/uploads/clip.mp3"}`))
		}))

		result, err := client.Upload(context.Background(), UploadFile{
			Filename:    "clip.mp3",
			Content:     content,
			ContentType: "audio/mp3",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(len(content)), result.Size)
		assert.Equal(t, int32(2), attempts.Load())
		assert.Equal(t, content, <-received)
		assert.Equal(t, content, <-received)
	})

	t.Run("Should give up after the retry budget and name the file", func(t *testing.T) {
		var attempts atomic.Int32
		client := retryingClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			http.Error(w, "storage write failed", http.StatusInternalServerError)
		}))

		_, err := client.Upload(context.Background(), UploadFile{
			Filename: "clip.mp3",
			Content:  []byte("audio-bytes"),
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `failed to upload file "clip.mp3"`)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("Should not retry client errors", func(t *testing.T) {
		var attempts atomic.Int32
		client := retryingClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		}))

		_, err := client.Upload(context.Background(), UploadFile{
			Filename: "huge.mp4",
			Content:  []byte("video-bytes"),
		})

		require.Error(t, err)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestRetryCondition(t *testing.T) {
	t.Run("Should retry network errors and transient status codes", func(t *testing.T) {
		assert.True(t, retryCondition(nil, errors.New("connection reset")))
		assert.True(t, retryableStatus(http.StatusInternalServerError))
		assert.True(t, retryableStatus(http.StatusTooManyRequests))
		assert.True(t, retryableStatus(http.StatusRequestTimeout))
	})

	t.Run("Should not retry a request the caller already gave up on", func(t *testing.T) {
		assert.False(t, retryCondition(nil, context.Canceled))
		assert.False(t, retryCondition(nil, context.DeadlineExceeded))
		assert.False(t, retryCondition(nil, fmt.Errorf("request aborted: %w", context.Canceled)))
	})

	t.Run("Should not retry client errors", func(t *testing.T) {
		assert.False(t, retryableStatus(http.StatusNotFound))
		assert.False(t, retryableStatus(http.StatusBadRequest))
	})
}

func TestUploadAll(t *testing.T) {
	t.Run("Should upload every file in the batch", func(t *testing.T) {
		var count atomic.Int32
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count.Add(1)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"filePath":"/data/uploads/x"}`))
		}))

		results, err := client.UploadAll(context.Background(), []UploadFile{
			{Filename: "a.mp4", Content: []byte("a")},
			{Filename: "b.mp3", Content: []byte("b")},
			{Filename: "c.wav", Content: []byte("c")},
		})

		require.NoError(t, err)
		assert.Len(t, results, 3)
		assert.Equal(t, int32(3), count.Load())
	})

	t.Run("Should abort the batch with an error naming the failed file", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile("file")
			require.NoError(t, err)
			if header.Filename == "broken.wav" {
				http.Error(w, "storage write failed", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"filePath":"/data/uploads/x"}`))
		}))

		_, err := client.UploadAll(context.Background(), []UploadFile{
			{Filename: "a.mp4", Content: []byte("a")},
			{Filename: "broken.wav", Content: []byte("b")},
			{Filename: "c.mp3", Content: []byte("c")},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `"broken.wav"`)
	})
}

func TestGetExecution(t *testing.T) {
	t.Run("Should fetch the execution with run data included", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/executions/exec-9", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("includeData"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "exec-9",
				"finished": false,
				"data": {"resultData": {"runData": {"Download Media": [{"startTime": 1}]}}}
			}`))
		}))

		exec, err := client.GetExecution(context.Background(), "exec-9")

		require.NoError(t, err)
		assert.Equal(t, "exec-9", exec.ID.String())
		assert.Contains(t, exec.Data.ResultData.RunData, "Download Media")
	})

	t.Run("Should wrap not-found responses with the execution id", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))

		_, err := client.GetExecution(context.Background(), "missing")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get execution missing")
	})
}

func TestListActiveExecutions(t *testing.T) {
	t.Run("Should query unfinished executions and force processing status", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/executions", r.URL.Path)
			assert.JSONEq(t, `{"finished":false}`, r.URL.Query().Get("filter"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data": [
				{"id": 1, "finished": false},
				{"id": 2, "finished": true}
			]}`))
		}))

		statuses, err := client.ListActiveExecutions(context.Background())

		require.NoError(t, err)
		require.Len(t, statuses, 2)
		for _, status := range statuses {
			assert.Equal(t, StatusProcessing, status.Status)
		}
		assert.Equal(t, "1", statuses[0].ID)
	})
}

func TestExtractResults(t *testing.T) {
	t.Run("Should unwrap the last node output into results", func(t *testing.T) {
		payload := `{"analysis": {"people": [{"name": "Maria"}], "soundbites": []}, "deliverables": {"editPlan": "cut to the storm"}}`
		exec := &Execution{
			Finished: true,
			Data: &ExecutionData{ResultData: &ResultData{
				LastNodeExecuted: "Format Deliverables",
				RunData: map[string][]NodeRun{
					"Format Deliverables": {{
						Data: &NodeRunData{Main: [][]NodeOutput{{{JSON: json.RawMessage(payload)}}}},
					}},
				},
			}},
		}

		results, ok := ExtractResults(exec)

		require.True(t, ok)
		require.NotNil(t, results.Analysis)
		assert.Equal(t, "Maria", results.Analysis.People[0].Name)
		assert.Equal(t, "cut to the storm", results.Deliverables["editPlan"])
	})

	t.Run("Should accept an unwrapped analysis payload", func(t *testing.T) {
		payload := `{"people": [{"name": "Maria"}], "overallNarrative": "leaving and returning"}`
		exec := &Execution{
			Finished: true,
			Data: &ExecutionData{ResultData: &ResultData{
				LastNodeExecuted: "Build Narrative",
				RunData: map[string][]NodeRun{
					"Build Narrative": {{
						Data: &NodeRunData{Main: [][]NodeOutput{{{JSON: json.RawMessage(payload)}}}},
					}},
				},
			}},
		}

		results, ok := ExtractResults(exec)

		require.True(t, ok)
		require.NotNil(t, results.Analysis)
		assert.Equal(t, "leaving and returning", results.Analysis.OverallNarrative)
	})

	t.Run("Should report no results when the record has no usable payload", func(t *testing.T) {
		_, ok := ExtractResults(&Execution{Finished: true})

		assert.False(t, ok)
	})
}
