package validation

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const maxReferenceLength = 2048

// Allowed upload types, matched by prefix against the media type.
var allowedUploadTypes = []string{
	"image/",
	"application/pdf",
	"text/",
	"audio/",
	"video/",
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateVideoReference does the cheap checks on a user supplied video URL or
// id. Whether it actually names a video is decided when the id is resolved.
func ValidateVideoReference(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return &ValidationError{Field: "videoUrl", Message: "Video URL is required"}
	}
	if len(ref) > maxReferenceLength {
		return &ValidationError{Field: "videoUrl", Message: "Video URL is too long"}
	}

	if strings.Contains(ref, "://") {
		parsed, err := url.Parse(ref)
		if err != nil {
			return &ValidationError{Field: "videoUrl", Message: "Invalid URL format"}
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return &ValidationError{Field: "videoUrl", Message: "URL must use HTTP or HTTPS"}
		}
		if !IsYouTubeDomain(parsed.Hostname()) {
			return &ValidationError{Field: "videoUrl", Message: "Only YouTube URLs are supported"}
		}
	}
	return nil
}

func IsYouTubeDomain(host string) bool {
	host = strings.ToLower(host)
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") ||
		host == "youtu.be" || host == "youtube-nocookie.com" || strings.HasSuffix(host, ".youtube-nocookie.com")
}

// DetectMIMEType prefers the declared Content-Type of an upload and falls back
// to sniffing the content.
func DetectMIMEType(declared string, data []byte) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
			return mediaType
		}
	}
	sniffed := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(sniffed); err == nil {
		return mediaType
	}
	return sniffed
}

func ValidateUpload(size, maxSize int64, mimeType string) error {
	if size <= 0 {
		return &ValidationError{Field: "file", Message: "File is empty"}
	}
	if maxSize > 0 && size > maxSize {
		return &ValidationError{Field: "file", Message: fmt.Sprintf("File exceeds the %d byte limit", maxSize)}
	}
	for _, prefix := range allowedUploadTypes {
		if strings.HasPrefix(mimeType, prefix) {
			return nil
		}
	}
	return &ValidationError{Field: "file", Message: fmt.Sprintf("Unsupported file type %q", mimeType)}
}
