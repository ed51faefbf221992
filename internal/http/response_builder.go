package http

import (
	"html/template"
	"net/http"
	"strings"
)

// Headers carrying the status line of the last intent. Scripted clients
// use them instead of re-reading the page.
const (
	HeaderStatusMessage = "X-Status-Message"
	HeaderStatusKind    = "X-Status-Kind"
)

// NotificationType classifies a status message for styling.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

// notificationKind derives the kind from the message text: every failure
// message starts with "Error" or asks the user to fix the input.
func notificationKind(message string) NotificationType {
	switch {
	case message == "":
		return NotificationInfo
	case strings.HasPrefix(message, "Error"),
		strings.HasPrefix(message, "Please"),
		strings.HasPrefix(message, "Invalid"),
		strings.HasPrefix(message, "Description is too long"):
		return NotificationError
	default:
		return NotificationSuccess
	}
}

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Redirect answers 303 See Other so a reload never repeats the POST.
func (b *ResponseBuilder) Redirect(location string) *ResponseBuilder {
	b.headers["Location"] = location
	b.statusCode = http.StatusSeeOther
	return b
}

// Notification exposes message and its kind as response headers.
func (b *ResponseBuilder) Notification(message string) *ResponseBuilder {
	if message == "" {
		return b
	}
	b.headers[HeaderStatusMessage] = message
	b.headers[HeaderStatusKind] = string(notificationKind(message))
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// BodyString sets a plain text body.
func (b *ResponseBuilder) BodyString(content string) *ResponseBuilder {
	b.headers["Content-Type"] = "text/plain; charset=utf-8"
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *ResponseBuilder) BodyHTML(html string) *ResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates an error response with an escaped HTML message.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ServiceUnavailableError creates a 503 response.
func ServiceUnavailableError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}
