package config

import (
	"time"
)

// Config is the root configuration for the story-mcp server.
type Config struct {
	Engine   EngineConfig   `koanf:"engine"`
	Server   ServerConfig   `koanf:"server"`
	Workflow WorkflowConfig `koanf:"workflow"`
	Log      LogConfig      `koanf:"log"`
}

// EngineConfig configures access to the n8n workflow engine.
type EngineConfig struct {
	BaseURL string          `koanf:"base_url" env:"N8N_BASE_URL" validate:"required,url"`
	APIKey  SensitiveString `koanf:"api_key"  env:"N8N_API_KEY"  validate:"required" sensitive:"true"`
	Timeout time.Duration   `koanf:"timeout"  env:"N8N_TIMEOUT"`

	// Bounded retry policy for transient upstream failures.
	RetryCount       int           `koanf:"retry_count"         env:"N8N_RETRY_COUNT"         validate:"gte=0"`
	RetryWaitTime    time.Duration `koanf:"retry_wait_time"     env:"N8N_RETRY_WAIT_TIME"`
	RetryMaxWaitTime time.Duration `koanf:"retry_max_wait_time" env:"N8N_RETRY_MAX_WAIT_TIME"`

	// Maximum number of files uploaded concurrently per batch.
	UploadConcurrency int `koanf:"upload_concurrency" env:"N8N_UPLOAD_CONCURRENCY" validate:"gte=1"`
}

// ServerConfig configures the HTTP/SSE transport.
type ServerConfig struct {
	Host            string        `koanf:"host"             env:"STORY_MCP_HOST"`
	Port            string        `koanf:"port"             env:"STORY_MCP_PORT"`
	BaseURL         string        `koanf:"base_url"         env:"STORY_MCP_BASE_URL"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" env:"STORY_MCP_SHUTDOWN_TIMEOUT"`
}

// WorkflowConfig carries knowledge about the remote workflow graph. The node
// count and labels must match the deployed storytelling workflow; they are
// configuration rather than constants so a graph edit does not require a
// rebuild of this server.
type WorkflowConfig struct {
	ExpectedNodeCount int               `koanf:"expected_node_count" env:"WORKFLOW_EXPECTED_NODE_COUNT" validate:"gt=0"`
	NodeLabels        map[string]string `koanf:"node_labels"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `koanf:"level"  env:"STORY_MCP_LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	JSON   bool   `koanf:"json"   env:"STORY_MCP_LOG_JSON"`
	Source bool   `koanf:"source" env:"STORY_MCP_LOG_SOURCE"`
}

// Default returns the default configuration. The engine base URL and API key
// have no defaults and must be provided through the environment.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Timeout:           30 * time.Second,
			RetryCount:        3,
			RetryWaitTime:     100 * time.Millisecond,
			RetryMaxWaitTime:  2 * time.Second,
			UploadConcurrency: 4,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "6170",
			BaseURL:         "http://localhost:6170",
			ShutdownTimeout: 10 * time.Second,
		},
		Workflow: WorkflowConfig{
			ExpectedNodeCount: 9,
			NodeLabels: map[string]string{
				"Analysis Webhook":       "Starting analysis...",
				"Download Media":         "Downloading media files...",
				"Extract Audio":          "Extracting audio tracks...",
				"Transcribe Audio":       "Transcribing audio...",
				"Identify Speakers":      "Identifying speakers...",
				"Analyze Story Elements": "Analyzing story elements...",
				"Extract Soundbites":     "Extracting soundbites...",
				"Build Narrative":        "Building overall narrative...",
				"Format Deliverables":    "Formatting deliverables...",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
