package handlers

import (
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/nijaru/yt-gemini/errors"
	"github.com/nijaru/yt-gemini/generator"
	"github.com/nijaru/yt-gemini/middleware"
	"github.com/nijaru/yt-gemini/utils"
	"github.com/nijaru/yt-gemini/validation"
	"github.com/sirupsen/logrus"
)

const (
	questionsPrompt = "Give me top 10 most important question from this file."
	explainPrompt   = "whats in this file, explain in 10 point."
	quizPrompt      = "Give me top 10 most important question from this file with answers."

	// Extra room for multipart boundaries and the other form fields.
	multipartOverhead = 1 << 20
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type generatedResponse struct {
	GeneratedText string `json:"generatedText"`
}

type quizResponse struct {
	Quiz []generator.QuizItem `json:"quiz"`
}

func (h *Handler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	h.handlePrompt(w, r, "GenerateContent")
}

func (h *Handler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	h.handlePrompt(w, r, "AskQuestion")
}

func (h *Handler) handlePrompt(w http.ResponseWriter, r *http.Request, op string) {
	if !allowMethod(w, r, http.MethodPost, op) {
		return
	}

	var req promptRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		fail(w, r, errors.InvalidInput(op, nil, "Prompt is required"))
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	text, err := h.generator.GenerateText(ctx, req.Prompt)
	if err != nil {
		fail(w, r, generationError(ctx, op, err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, generatedResponse{GeneratedText: text})
}

// ReadFile explains an uploaded file, or lists questions about it when the
// "type" form field is "que".
func (h *Handler) ReadFile(w http.ResponseWriter, r *http.Request) {
	const op = "ReadFile"
	if !allowMethod(w, r, http.MethodPost, op) {
		return
	}

	file, err := h.readUpload(w, r, op)
	if err != nil {
		fail(w, r, err)
		return
	}

	prompt := explainPrompt
	if r.FormValue("type") == "que" {
		prompt = questionsPrompt
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	text, genErr := h.generator.GenerateText(ctx, prompt, file)
	if genErr != nil {
		fail(w, r, generationError(ctx, op, genErr))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, generatedResponse{GeneratedText: text})
}

// ReadFileToQuiz returns questions with answers for an uploaded file. With
// ?format=json the quiz is returned as structured items instead of prose.
func (h *Handler) ReadFileToQuiz(w http.ResponseWriter, r *http.Request) {
	const op = "ReadFileToQuiz"
	if !allowMethod(w, r, http.MethodPost, op) {
		return
	}

	file, err := h.readUpload(w, r, op)
	if err != nil {
		fail(w, r, err)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	if strings.EqualFold(r.URL.Query().Get("format"), "json") {
		quiz, genErr := h.generator.GenerateQuiz(ctx, quizPrompt, file)
		if genErr != nil {
			fail(w, r, generationError(ctx, op, genErr))
			return
		}
		if quiz == nil {
			quiz = []generator.QuizItem{}
		}
		utils.RespondWithJSON(w, http.StatusOK, quizResponse{Quiz: quiz})
		return
	}

	text, genErr := h.generator.GenerateText(ctx, quizPrompt, file)
	if genErr != nil {
		fail(w, r, generationError(ctx, op, genErr))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, generatedResponse{GeneratedText: text})
}

// readUpload pulls the "file" part out of a multipart request and checks its
// size and type.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, op string) (generator.File, *errors.AppError) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return generator.File{}, errors.E(op, err, "File is too large", http.StatusRequestEntityTooLarge)
		}
		return generator.File{}, errors.InvalidInput(op, err, "File is required")
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		return generator.File{}, errors.InvalidInput(op, err, "File is required")
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, h.maxUploadSize+1))
	if err != nil {
		return generator.File{}, errors.InvalidInput(op, err, "Failed to read uploaded file")
	}

	mimeType := validation.DetectMIMEType(header.Header.Get("Content-Type"), data)
	if err := validation.ValidateUpload(int64(len(data)), h.maxUploadSize, mimeType); err != nil {
		code := http.StatusBadRequest
		if int64(len(data)) > h.maxUploadSize {
			code = http.StatusRequestEntityTooLarge
		}
		return generator.File{}, errors.E(op, err, err.Error(), code)
	}

	middleware.GetLogger(r.Context()).WithFields(logrus.Fields{
		"filename":  header.Filename,
		"size":      len(data),
		"mime_type": mimeType,
	}).Debug("Upload accepted")

	return generator.File{Data: data, MIMEType: mimeType}, nil
}
