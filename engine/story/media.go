package story

import (
	"fmt"
	"path"
	"strings"
)

// mimeByExtension maps known media extensions to the content types the
// workflow engine expects. Anything else is sent as a generic binary.
var mimeByExtension = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mp3":  "audio/mp3",
	".wav":  "audio/wav",
	".m4a":  "audio/m4a",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
}

const defaultMimeType = "application/octet-stream"

// MimeTypeForFilename infers a content type from the file extension.
func MimeTypeForFilename(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if mime, ok := mimeByExtension[ext]; ok {
		return mime
	}
	return defaultMimeType
}

// MediaFileFromURL builds a MediaFile from a caller-supplied URL. Size and
// Duration stay zero until the engine inspects the file.
func MediaFileFromURL(rawURL string) MediaFile {
	name := rawURL
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = path.Base(name)
	return MediaFile{
		Filename: name,
		Filepath: rawURL,
		MimeType: MimeTypeForFilename(name),
	}
}

// MediaFilesFromURLs builds one MediaFile per URL, preserving order.
func MediaFilesFromURLs(urls []string) []MediaFile {
	files := make([]MediaFile, 0, len(urls))
	for _, u := range urls {
		files = append(files, MediaFileFromURL(u))
	}
	return files
}

// EstimateProcessingTime returns a rough human-readable estimate of how long
// the analysis of the given number of files will take.
func EstimateProcessingTime(fileCount int) string {
	if fileCount <= 0 {
		return "a few minutes"
	}
	return fmt.Sprintf("%d-%d minutes", fileCount*2, fileCount*5)
}
