package transcript

import (
	"encoding/json"
	"strings"
)

// Markers in the watch page. The page is not parsed as HTML; the captions
// object is cut out of the embedded player response by string search.
const (
	captionsMarker     = `"captions":`
	videoDetailsMarker = `,"videoDetails`
	recaptchaMarker    = `class="g-recaptcha"`
	playabilityMarker  = `"playabilityStatus":`
)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}

type captionsJSON struct {
	Renderer *struct {
		CaptionTracks []captionTrack `json:"captionTracks"`
	} `json:"playerCaptionsTracklistRenderer"`
}

// extractCaptionTracks pulls the caption track list out of a watch page.
func extractCaptionTracks(page, videoID string) ([]captionTrack, error) {
	_, rest, found := strings.Cut(page, captionsMarker)
	if !found {
		switch {
		case strings.Contains(page, recaptchaMarker):
			return nil, ErrTooManyRequests
		case !strings.Contains(page, playabilityMarker):
			return nil, videoError(videoID, ErrVideoUnavailable)
		default:
			return nil, videoError(videoID, ErrTranscriptsDisabled)
		}
	}

	if i := strings.Index(rest, videoDetailsMarker); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.ReplaceAll(rest, "\n", "")

	var captions captionsJSON
	if err := json.Unmarshal([]byte(rest), &captions); err != nil || captions.Renderer == nil {
		return nil, videoError(videoID, ErrTranscriptsDisabled)
	}

	tracks := captions.Renderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, videoError(videoID, ErrNoTranscriptAvailable)
	}
	return tracks, nil
}

// selectTrack picks the track for lang, or the first track when lang is empty.
func selectTrack(tracks []captionTrack, lang, videoID string) (captionTrack, error) {
	if lang == "" {
		return tracks[0], nil
	}

	available := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.LanguageCode == lang {
			return t, nil
		}
		available = append(available, t.LanguageCode)
	}
	return captionTrack{}, &LanguageNotAvailableError{
		Lang:      lang,
		Available: available,
		VideoID:   videoID,
	}
}
