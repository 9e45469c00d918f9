package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusAccepted).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusAccepted {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerUploadAccepted("abc", "2024-03").
		TriggerMonthSelected("2024-03").
		TriggerWarningNotification("2 linhas ignoradas").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	expectedParts := []string{
		`"upload:accepted"`,
		`"month:selected"`,
		`"show-notification"`,
		`"id":"abc"`,
		`"month":"2024-03"`,
		`"type":"warning"`,
		`"duration":5000`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_BodyJSON(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().BodyJSON(map[string]int{"n": 1}).Write(w)

	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got["n"] != 1 {
		t.Errorf("body = %s (%v)", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	NewHTMXResponse().BodyJSON(func() {}).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("unencodable body status = %d", w.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *HTMXResponseBuilder
		code    int
	}{
		{"bad request", BadRequestError("x"), http.StatusBadRequest},
		{"internal", InternalServerError("x"), http.StatusInternalServerError},
		{"not found", NotFoundError("x"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.code {
				t.Errorf("code = %d, want %d", w.Code, tt.code)
			}
			if !strings.Contains(w.Body.String(), `class="error-banner"`) {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestErrorResponse_EscapesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusBadGateway, `<script>alert("x")</script>`).Write(w)

	if strings.Contains(w.Body.String(), "<script>") {
		t.Errorf("message not escaped: %s", w.Body.String())
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(http.StatusGone, "expirou", "req_1").Write(w)

	if w.Code != http.StatusGone {
		t.Errorf("code = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"expirou"`) || !strings.Contains(w.Body.String(), `"request_id":"req_1"`) {
		t.Errorf("body = %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	JSONError(http.StatusBadRequest, "x", "").Write(w)
	if strings.Contains(w.Body.String(), "request_id") {
		t.Errorf("empty request ID should be omitted: %s", w.Body.String())
	}
}
