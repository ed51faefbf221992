package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestResponseBuilder_RedirectWithNotification(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Redirect("/").
		Notification("Transaction added successfully!").
		Write(w)

	if w.Code != http.StatusSeeOther {
		t.Errorf("Status code = %d, want 303", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/" {
		t.Errorf("Location = %q, want /", got)
	}
	if got := w.Header().Get(HeaderStatusMessage); got != "Transaction added successfully!" {
		t.Errorf("%s = %q", HeaderStatusMessage, got)
	}
	if got := w.Header().Get(HeaderStatusKind); got != string(NotificationSuccess) {
		t.Errorf("%s = %q, want success", HeaderStatusKind, got)
	}
}

func TestResponseBuilder_EmptyNotificationIsSkipped(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Notification("").Write(w)
	if _, ok := w.Header()[HeaderStatusMessage]; ok {
		t.Error("empty notification should not set a header")
	}
}

func TestResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Header("X-Custom", "value").
		Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("X-Custom header = %q, want %q", w.Header().Get("X-Custom"), "value")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		builder    *ResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{"BadRequest", BadRequestError("Bad input"), http.StatusBadRequest, `<div class="error">Bad input</div>`},
		{"InternalServer", InternalServerError("Server error"), http.StatusInternalServerError, `<div class="error">Server error</div>`},
		{"Unavailable", ServiceUnavailableError("not ready"), http.StatusServiceUnavailable, `<div class="error">not ready</div>`},
		{"Escaped", BadRequestError("<script>"), http.StatusBadRequest, `<div class="error">&lt;script&gt;</div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestNotificationKind(t *testing.T) {
	tests := map[string]NotificationType{
		"":                                    NotificationInfo,
		"Budgets updated successfully!":       NotificationSuccess,
		`Category "Pets" added!`:              NotificationSuccess,
		"Error: Could not add transaction.":   NotificationError,
		"Please choose income or expense.":    NotificationError,
		"Invalid or duplicate category name.": NotificationError,
	}
	for msg, want := range tests {
		if got := notificationKind(msg); got != want {
			t.Errorf("notificationKind(%q) = %q, want %q", msg, got, want)
		}
	}
}
