package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultWatchURL  = "https://www.youtube.com/watch"
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_4) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/85.0.4183.83 Safari/537.36,gzip(gfe)"
	DefaultTimeout   = 15 * time.Second
)

// Fragment is one timed span of caption text.
type Fragment struct {
	Text     string  `json:"text"`
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
	Lang     string  `json:"lang"`
}

// Config holds per-call options. An empty Lang means the first track.
type Config struct {
	Lang string
}

type Fetcher struct {
	client    *http.Client
	watchURL  string
	userAgent string
	logger    *logrus.Entry
}

type Option func(*Fetcher)

func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithWatchURL overrides the watch page location; the video id is sent as
// the "v" query parameter.
func WithWatchURL(watchURL string) Option {
	return func(f *Fetcher) {
		if watchURL != "" {
			f.watchURL = watchURL
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logrus.NewEntry(logger)
		}
	}
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		watchURL:  DefaultWatchURL,
		userAgent: DefaultUserAgent,
		logger:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchTranscript resolves reference to a video id, scrapes the watch page
// for its caption tracks and returns the fragments of the selected track.
func (f *Fetcher) FetchTranscript(ctx context.Context, reference string, cfg Config) ([]Fragment, error) {
	videoID, err := ResolveVideoID(reference)
	if err != nil {
		return nil, err
	}

	log := f.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"lang":     cfg.Lang,
	})

	page, status, err := f.get(ctx, "fetch watch page", f.pageURL(videoID), cfg.Lang)
	if err != nil {
		log.WithError(err).Error("Failed to fetch watch page")
		return nil, err
	}
	if status == http.StatusTooManyRequests {
		return nil, ErrTooManyRequests
	}

	tracks, err := extractCaptionTracks(page, videoID)
	if err != nil {
		log.WithError(err).Warn("No usable captions on watch page")
		return nil, err
	}

	track, err := selectTrack(tracks, cfg.Lang, videoID)
	if err != nil {
		return nil, err
	}

	doc, status, err := f.get(ctx, "fetch caption track", track.BaseURL, cfg.Lang)
	if err != nil {
		log.WithError(err).Error("Failed to fetch caption track")
		return nil, err
	}
	if status < 200 || status > 299 {
		log.WithField("status", status).Warn("Caption track request failed")
		return nil, videoError(videoID, ErrNoTranscriptAvailable)
	}

	lang := cfg.Lang
	if lang == "" {
		// Always the first listed track, not the selected one.
		lang = tracks[0].LanguageCode
	}

	fragments := parseCaptions(doc, lang)
	log.WithField("fragments", len(fragments)).Debug("Transcript fetched")
	return fragments, nil
}

func (f *Fetcher) pageURL(videoID string) string {
	return f.watchURL + "?" + url.Values{"v": {videoID}}.Encode()
}

func (f *Fetcher) get(ctx context.Context, op, rawURL, lang string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, &NetworkError{Op: op, URL: rawURL, Err: errors.Wrap(err, "building request")}
	}
	req.Header.Set("User-Agent", f.userAgent)
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, &NetworkError{Op: op, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, &NetworkError{Op: op, URL: rawURL, Err: fmt.Errorf("reading body: %w", err)}
	}
	return string(body), resp.StatusCode, nil
}
