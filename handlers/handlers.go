package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/nijaru/yt-gemini/errors"
	"github.com/nijaru/yt-gemini/generator"
	"github.com/nijaru/yt-gemini/middleware"
	"github.com/nijaru/yt-gemini/transcript"
	"github.com/nijaru/yt-gemini/utils"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxUploadSize  = 20 << 20
	defaultRequestTimeout = 90 * time.Second
	maxJSONBodySize       = 1 << 20

	generationFailedMessage = "An error occurred while generating content"
)

type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, files ...generator.File) (string, error)
	GenerateQuiz(ctx context.Context, prompt string, files ...generator.File) ([]generator.QuizItem, error)
}

type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, reference string, cfg transcript.Config) ([]transcript.Fragment, error)
}

type Options struct {
	MaxUploadSize  int64
	RequestTimeout time.Duration
}

type Handler struct {
	generator      TextGenerator
	fetcher        TranscriptFetcher
	maxUploadSize  int64
	requestTimeout time.Duration
}

func New(gen TextGenerator, fetcher TranscriptFetcher, opts Options) *Handler {
	h := &Handler{
		generator:      gen,
		fetcher:        fetcher,
		maxUploadSize:  opts.MaxUploadSize,
		requestTimeout: opts.RequestTimeout,
	}
	if h.maxUploadSize <= 0 {
		h.maxUploadSize = defaultMaxUploadSize
	}
	if h.requestTimeout <= 0 {
		h.requestTimeout = defaultRequestTimeout
	}
	return h
}

// Routes returns a mux with every endpoint registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/generate-content", h.GenerateContent)
	mux.HandleFunc("/ask-question", h.AskQuestion)
	mux.HandleFunc("/read-file", h.ReadFile)
	mux.HandleFunc("/read-file-to-quiz", h.ReadFileToQuiz)
	mux.HandleFunc("/generate-transcript", h.GenerateTranscript)
	mux.HandleFunc("/transcript", h.Transcript)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet, "Health") {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method, op string) bool {
	if r.Method == method {
		return true
	}
	middleware.GetLogger(r.Context()).WithField("method", r.Method).Warn("Invalid HTTP method")
	w.Header().Set("Allow", method)
	utils.RespondWithError(w, errors.E(op, nil, "Method not allowed", http.StatusMethodNotAllowed))
	return false
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched so
// that the missing-field checks report it.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) *errors.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return errors.E(op, err, "Request body too large", http.StatusRequestEntityTooLarge)
		}
		return errors.InvalidInput(op, err, "Invalid request body")
	}
	return nil
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.requestTimeout)
}

// generationError maps a generator failure to the client-facing 500, or a 504
// when the request deadline ran out first.
func generationError(ctx context.Context, op string, err error) *errors.AppError {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.GatewayTimeout(op, err, "Request timed out")
	}
	return errors.Internal(op, err, generationFailedMessage)
}

// transcriptError maps fetcher failures onto HTTP statuses.
func transcriptError(ctx context.Context, op string, err error) *errors.AppError {
	var (
		langErr *transcript.LanguageNotAvailableError
		netErr  *transcript.NetworkError
	)
	switch {
	case stderrors.Is(err, transcript.ErrInvalidReference):
		return errors.InvalidInput(op, err, "Invalid YouTube video URL")
	case stderrors.Is(err, transcript.ErrTooManyRequests):
		return errors.Unavailable(op, err, "YouTube is receiving too many requests, try again later")
	case stderrors.Is(err, transcript.ErrVideoUnavailable):
		return errors.NotFound(op, err, "Video is no longer available")
	case stderrors.Is(err, transcript.ErrTranscriptsDisabled):
		return errors.NotFound(op, err, "Transcripts are disabled for this video")
	case stderrors.Is(err, transcript.ErrNoTranscriptAvailable):
		return errors.NotFound(op, err, "No transcript is available for this video")
	case stderrors.As(err, &langErr):
		return errors.Unprocessable(op, err, "Transcript is not available in "+langErr.Lang).
			WithDetail("available", langErr.Available)
	case stderrors.As(err, &netErr):
		if netErr.Timeout() {
			return errors.GatewayTimeout(op, err, "Timed out fetching the transcript")
		}
		return errors.BadGateway(op, err, "Failed to reach YouTube")
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.GatewayTimeout(op, err, "Request timed out")
	default:
		return errors.Internal(op, err, "Failed to fetch the transcript")
	}
}

// fail logs err at a level matching its status and writes the response.
func fail(w http.ResponseWriter, r *http.Request, appErr *errors.AppError) {
	logger := middleware.GetLogger(r.Context()).WithFields(logrus.Fields{
		"op":     appErr.Op,
		"status": appErr.Code,
	})
	if appErr.Err != nil {
		logger = logger.WithError(appErr.Err)
	}
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error(appErr.Message)
	} else {
		logger.Warn(appErr.Message)
	}
	utils.RespondWithError(w, appErr)
}
