package handlers

import (
	"net/http"
	"strings"

	"github.com/nijaru/yt-gemini/errors"
	"github.com/nijaru/yt-gemini/middleware"
	"github.com/nijaru/yt-gemini/transcript"
	"github.com/nijaru/yt-gemini/utils"
	"github.com/nijaru/yt-gemini/validation"
	"github.com/sirupsen/logrus"
)

const summaryPrompt = "You are a YouTube video summarizer. You will be taking the transcript text and summarizing the entire video and providing the details in 25 points. Please provide the detailed notes from the transcript: "

type transcriptRequest struct {
	VideoURL string `json:"videoUrl"`
	Lang     string `json:"lang,omitempty"`
}

type summaryResponse struct {
	Transcript string `json:"transcript"`
}

type fragmentsResponse struct {
	VideoID   string                `json:"videoId"`
	Fragments []transcript.Fragment `json:"fragments"`
}

// GenerateTranscript fetches a video's captions and returns a model-written
// summary of them.
func (h *Handler) GenerateTranscript(w http.ResponseWriter, r *http.Request) {
	const op = "GenerateTranscript"
	if !allowMethod(w, r, http.MethodPost, op) {
		return
	}

	req, appErr := readTranscriptRequest(w, r, op)
	if appErr != nil {
		fail(w, r, appErr)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	fragments, err := h.fetcher.FetchTranscript(ctx, req.VideoURL, transcript.Config{Lang: req.Lang})
	if err != nil {
		fail(w, r, transcriptError(ctx, op, err))
		return
	}

	text := joinFragments(fragments)
	middleware.GetLogger(r.Context()).WithFields(logrus.Fields{
		"fragments":       len(fragments),
		"transcript_size": len(text),
	}).Info("Summarizing transcript")

	summary, err := h.generator.GenerateText(ctx, summaryPrompt+text)
	if err != nil {
		fail(w, r, generationError(ctx, op, err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summaryResponse{Transcript: summary})
}

// Transcript returns the raw caption fragments without summarizing them.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	const op = "Transcript"
	if !allowMethod(w, r, http.MethodPost, op) {
		return
	}

	req, appErr := readTranscriptRequest(w, r, op)
	if appErr != nil {
		fail(w, r, appErr)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	videoID, err := transcript.ResolveVideoID(req.VideoURL)
	if err != nil {
		fail(w, r, transcriptError(ctx, op, err))
		return
	}

	fragments, err := h.fetcher.FetchTranscript(ctx, videoID, transcript.Config{Lang: req.Lang})
	if err != nil {
		fail(w, r, transcriptError(ctx, op, err))
		return
	}
	if fragments == nil {
		fragments = []transcript.Fragment{}
	}
	utils.RespondWithJSON(w, http.StatusOK, fragmentsResponse{VideoID: videoID, Fragments: fragments})
}

func readTranscriptRequest(w http.ResponseWriter, r *http.Request, op string) (transcriptRequest, *errors.AppError) {
	var req transcriptRequest
	if appErr := decodeJSON(w, r, op, &req); appErr != nil {
		return req, appErr
	}
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	req.Lang = strings.TrimSpace(req.Lang)

	if err := validation.ValidateVideoReference(req.VideoURL); err != nil {
		return req, errors.InvalidInput(op, err, err.Error())
	}
	return req, nil
}

func joinFragments(fragments []transcript.Fragment) string {
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	return strings.Join(texts, " ")
}
