package utils

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nijaru/yt-gemini/errors"
)

func TestHandleError(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleError(rr, "Test error", http.StatusBadRequest)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"error":"Test error"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestRespondWithError_Details(t *testing.T) {
	rr := httptest.NewRecorder()
	err := errors.Unprocessable("op", nil, "Language not available").WithDetail("available", []string{"en", "fr"})
	RespondWithError(rr, fmt.Errorf("wrapped: %w", err))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("got status %d", rr.Code)
	}
	expected := `{"available":["en","fr"],"error":"Language not available"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("got body %s want %s", rr.Body.String(), expected)
	}
}

func TestRespondWithError_PlainError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, fmt.Errorf("database exploded"))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got status %d", rr.Code)
	}
	expected := `{"error":"Internal server error"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("got body %s want %s", rr.Body.String(), expected)
	}
}

func TestRespondWithJSON_EncodeFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithJSON(rr, http.StatusOK, map[string]float64{"bad": math.NaN()})

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got status %d", rr.Code)
	}
}
