package transcript

import "regexp"

const videoIDLength = 11

var youtubeURLRE = regexp.MustCompile(`(?i)(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ResolveVideoID returns the video id for a raw id or a YouTube URL.
// Any 11-character input is assumed to already be an id.
func ResolveVideoID(reference string) (string, error) {
	if len(reference) == videoIDLength {
		return reference, nil
	}

	m := youtubeURLRE.FindStringSubmatch(reference)
	if len(m) < 2 {
		return "", ErrInvalidReference
	}
	return m[1], nil
}
