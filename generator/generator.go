package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-1.5-flash"

var ErrEmptyResponse = errors.New("model returned an empty response")

// File is an inline attachment sent alongside the prompt.
type File struct {
	Data     []byte
	MIMEType string
}

type QuizItem struct {
	Question string `json:"question" jsonschema:"description=The question text"`
	Answer   string `json:"answer" jsonschema:"description=A concise correct answer"`
}

type quizResponse struct {
	Questions []QuizItem `json:"questions" jsonschema:"minItems=1"`
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Client generates text with a Gemini model.
type Client struct {
	client *genai.Client
	model  string
	logger *logrus.Entry
}

func New(ctx context.Context, cfg Config, logger *logrus.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("generator: API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, errors.Wrap(err, "generator: creating genai client")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		client: client,
		model:  model,
		logger: logger.WithField("model", model),
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// GenerateText sends prompt, followed by any files, as a single user turn and
// returns the model's text.
func (c *Client) GenerateText(ctx context.Context, prompt string, files ...File) (string, error) {
	resp, err := c.generate(ctx, prompt, files, &genai.GenerateContentConfig{})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GenerateQuiz asks for question/answer pairs as JSON matching a schema
// derived from QuizItem.
func (c *Client) GenerateQuiz(ctx context.Context, prompt string, files ...File) ([]QuizItem, error) {
	schema, err := quizSchema()
	if err != nil {
		return nil, err
	}

	resp, err := c.generate(ctx, prompt, files, &genai.GenerateContentConfig{
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: schema,
	})
	if err != nil {
		return nil, err
	}

	var out quizResponse
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil {
		return nil, errors.Wrap(err, "generator: decoding quiz")
	}
	return out.Questions, nil
}

func (c *Client) generate(ctx context.Context, prompt string, files []File, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	start := time.Now()
	log := c.logger.WithFields(logrus.Fields{
		"prompt_chars": len(prompt),
		"files":        len(files),
	})

	resp, err := c.client.Models.GenerateContent(ctx, c.model, buildContents(prompt, files), config)
	if err != nil {
		log.WithError(err).Error("Content generation failed")
		return nil, errors.Wrap(err, "generator: generate content")
	}
	if strings.TrimSpace(resp.Text()) == "" {
		log.Warn("Model returned no text")
		return nil, ErrEmptyResponse
	}

	fields := logrus.Fields{"latency": time.Since(start)}
	if usage := resp.UsageMetadata; usage != nil {
		fields["input_tokens"] = usage.PromptTokenCount
		fields["output_tokens"] = usage.CandidatesTokenCount
	}
	log.WithFields(fields).Info("Content generated")
	return resp, nil
}

func buildContents(prompt string, files []File) []*genai.Content {
	parts := make([]*genai.Part, 0, len(files)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, f := range files {
		parts = append(parts, genai.NewPartFromBytes(f.Data, f.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func quizSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&quizResponse{})

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "generator: marshal quiz schema")
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "generator: unmarshal quiz schema")
	}
	return out, nil
}
