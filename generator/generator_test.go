package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGemini struct {
	mu     sync.Mutex
	paths  []string
	bodies []string

	status int
	text   string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":generateContent") {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"not found","status":"NOT_FOUND"}}`))
		return
	}
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		w.Write([]byte(`{"error":{"code":500,"message":"backend exploded","status":"INTERNAL"}}`))
		return
	}

	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": f.text}},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     12,
			"candidatesTokenCount": 4,
			"totalTokenCount":      16,
		},
	}
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeGemini) lastBody(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.bodies)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.bodies[len(f.bodies)-1]), &out))
	return out
}

func (f *fakeGemini) requestPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func newTestClient(t *testing.T, fake *fakeGemini) *Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := New(context.Background(), Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "gemini-test",
		HTTPClient: server.Client(),
	}, logger)
	require.NoError(t, err)
	return client
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{APIKey: " "}, nil)
	assert.Error(t, err)
}

func TestNew_DefaultModel(t *testing.T) {
	client, err := New(context.Background(), Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, client.Model())
}

func TestGenerateText(t *testing.T) {
	fake := &fakeGemini{text: "Go is a programming language."}
	client := newTestClient(t, fake)

	text, err := client.GenerateText(context.Background(), "What is Go?")
	require.NoError(t, err)
	assert.Equal(t, "Go is a programming language.", text)

	paths := fake.requestPaths()
	require.Len(t, paths, 1)
	assert.Contains(t, paths[0], "models/gemini-test:generateContent")

	body := fake.lastBody(t)
	contents := body["contents"].([]any)
	require.Len(t, contents, 1)
	turn := contents[0].(map[string]any)
	assert.Equal(t, "user", turn["role"])
	parts := turn["parts"].([]any)
	require.Len(t, parts, 1)
	assert.Equal(t, "What is Go?", parts[0].(map[string]any)["text"])
}

func TestGenerateText_WithFile(t *testing.T) {
	fake := &fakeGemini{text: "1. It is a PDF."}
	client := newTestClient(t, fake)

	file := File{Data: []byte("%PDF-1.4 fake"), MIMEType: "application/pdf"}
	text, err := client.GenerateText(context.Background(), "explain", file)
	require.NoError(t, err)
	assert.Equal(t, "1. It is a PDF.", text)

	body := fake.lastBody(t)
	parts := body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "explain", parts[0].(map[string]any)["text"])

	inline, ok := parts[1].(map[string]any)["inlineData"].(map[string]any)
	require.True(t, ok, "expected inlineData part, got %v", parts[1])
	assert.Equal(t, "application/pdf", inline["mimeType"])
	assert.NotEmpty(t, inline["data"])
}

func TestGenerateText_EmptyResponse(t *testing.T) {
	client := newTestClient(t, &fakeGemini{text: "   "})

	_, err := client.GenerateText(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateText_ServerError(t *testing.T) {
	client := newTestClient(t, &fakeGemini{status: http.StatusInternalServerError})

	_, err := client.GenerateText(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate content")
}

func TestGenerateQuiz(t *testing.T) {
	fake := &fakeGemini{
		text: `{"questions":[{"question":"What is Go?","answer":"A language."},{"question":"Who made it?","answer":"Google."}]}`,
	}
	client := newTestClient(t, fake)

	quiz, err := client.GenerateQuiz(context.Background(), "quiz me",
		File{Data: []byte("notes"), MIMEType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, []QuizItem{
		{Question: "What is Go?", Answer: "A language."},
		{Question: "Who made it?", Answer: "Google."},
	}, quiz)

	body := fake.lastBody(t)
	genCfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "expected generationConfig in request")
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
	assert.NotNil(t, genCfg["responseJsonSchema"])
}

func TestGenerateQuiz_MalformedJSON(t *testing.T) {
	client := newTestClient(t, &fakeGemini{text: "not json"})

	_, err := client.GenerateQuiz(context.Background(), "quiz me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding quiz")
}

func TestQuizSchema(t *testing.T) {
	schema, err := quizSchema()
	require.NoError(t, err)

	assert.NotContains(t, schema, "$ref")
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])

	props := schema["properties"].(map[string]any)
	questions := props["questions"].(map[string]any)
	assert.Equal(t, "array", questions["type"])
	item := questions["items"].(map[string]any)
	assert.ElementsMatch(t, []any{"question", "answer"}, item["required"])
}
