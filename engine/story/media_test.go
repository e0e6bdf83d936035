package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaFileFromURL(t *testing.T) {
	t.Run("Should infer video and audio mime types from extensions", func(t *testing.T) {
		video := MediaFileFromURL("https://cdn.example.com/media/a.mp4")
		audio := MediaFileFromURL("https://cdn.example.com/media/b.mp3")

		assert.Equal(t, "a.mp4", video.Filename)
		assert.Equal(t, "video/mp4", video.MimeType)
		assert.Equal(t, "b.mp3", audio.Filename)
		assert.Equal(t, "audio/mp3", audio.MimeType)
	})

	t.Run("Should keep the full URL as the filepath", func(t *testing.T) {
		file := MediaFileFromURL("https://cdn.example.com/media/interview.mov")

		assert.Equal(t, "https://cdn.example.com/media/interview.mov", file.Filepath)
		assert.Equal(t, "video/quicktime", file.MimeType)
	})

	t.Run("Should strip query parameters from the filename", func(t *testing.T) {
		file := MediaFileFromURL("https://cdn.example.com/media/clip.wav?token=abc&exp=42")

		assert.Equal(t, "clip.wav", file.Filename)
		assert.Equal(t, "audio/wav", file.MimeType)
	})

	t.Run("Should default unknown extensions to a generic binary type", func(t *testing.T) {
		file := MediaFileFromURL("https://cdn.example.com/media/readme.txt")

		assert.Equal(t, "application/octet-stream", file.MimeType)
	})

	t.Run("Should leave size and duration as placeholders", func(t *testing.T) {
		file := MediaFileFromURL("https://cdn.example.com/media/a.mp4")

		assert.Zero(t, file.Size)
		assert.Zero(t, file.Duration)
	})
}

func TestMediaFilesFromURLs(t *testing.T) {
	t.Run("Should build one file per URL preserving order", func(t *testing.T) {
		files := MediaFilesFromURLs([]string{"a.mp4", "b.mp3"})

		assert.Len(t, files, 2)
		assert.Equal(t, "video/mp4", files[0].MimeType)
		assert.Equal(t, "audio/mp3", files[1].MimeType)
	})
}

func TestEstimateProcessingTime(t *testing.T) {
	t.Run("Should scale the estimate with the file count", func(t *testing.T) {
		assert.Equal(t, "2-5 minutes", EstimateProcessingTime(1))
		assert.Equal(t, "6-15 minutes", EstimateProcessingTime(3))
	})

	t.Run("Should fall back to a vague estimate for zero files", func(t *testing.T) {
		assert.Equal(t, "a few minutes", EstimateProcessingTime(0))
	})
}

func TestDefaultOutputOptions(t *testing.T) {
	t.Run("Should enable every deliverable and default to English", func(t *testing.T) {
		opts := DefaultOutputOptions()

		assert.True(t, opts.IncludeTranscript)
		assert.True(t, opts.IncludeSoundbites)
		assert.True(t, opts.IncludeEditSuggestions)
		assert.Equal(t, "en", opts.Language)
	})
}
