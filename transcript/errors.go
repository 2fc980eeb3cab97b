package transcript

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrInvalidReference      = errors.New("impossible to retrieve YouTube video ID")
	ErrTooManyRequests       = errors.New("YouTube is receiving too many requests from this IP and now requires solving a captcha to continue")
	ErrVideoUnavailable      = errors.New("the video is no longer available")
	ErrTranscriptsDisabled   = errors.New("transcript is disabled on this video")
	ErrNoTranscriptAvailable = errors.New("no transcripts are available for this video")
	ErrNetwork               = errors.New("network error")
)

// VideoError ties one of the sentinel errors to the video it was raised for.
type VideoError struct {
	VideoID string
	Err     error
}

func (e *VideoError) Error() string {
	return fmt.Sprintf("%v (%s)", e.Err, e.VideoID)
}

func (e *VideoError) Unwrap() error {
	return e.Err
}

func videoError(videoID string, err error) error {
	return &VideoError{VideoID: videoID, Err: err}
}

type LanguageNotAvailableError struct {
	Lang      string
	Available []string
	VideoID   string
}

func (e *LanguageNotAvailableError) Error() string {
	return fmt.Sprintf(
		"no transcripts are available in %s for this video (%s). Available languages: %s",
		e.Lang, e.VideoID, strings.Join(e.Available, ", "),
	)
}

// NetworkError is a transport-level failure on one of the outbound requests.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// Timeout reports whether the request was cut off by a deadline.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
