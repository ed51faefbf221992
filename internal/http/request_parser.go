package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finadvisor/internal/session"
)

const (
	// maxBodyBytes caps form and JSON bodies.
	maxBodyBytes = 64 << 10

	// budgetFieldPrefix prefixes one budget input per category, e.g.
	// "budget:Groceries".
	budgetFieldPrefix = "budget:"
)

var errBodyTooLarge = errors.New("request body too large")

// readForm returns the request fields from a form-encoded or JSON body. A
// JSON object may nest budgets as {"budgets": {"Groceries": "50"}}.
func readForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, wrapBodyError(err)
		}
		return r.PostForm, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, wrapBodyError(err)
	}
	values := url.Values{}
	if len(body) == 0 {
		return values, nil
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	for key, val := range data {
		if nested, ok := val.(map[string]any); ok && key == "budgets" {
			for category, limit := range nested {
				values.Set(budgetFieldPrefix+category, stringValue(limit))
			}
			continue
		}
		values.Set(key, stringValue(val))
	}
	return values, nil
}

func wrapBodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return err
}

// stringValue converts a decoded JSON value to its form representation.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func field(form url.Values, key string) string {
	return sanitizeInput(form.Get(key))
}

// transactionInput maps the add-transaction form.
func transactionInput(form url.Values) session.TransactionInput {
	return session.TransactionInput{
		Type:        field(form, "type"),
		Category:    field(form, "category"),
		Amount:      field(form, "amount"),
		Date:        field(form, "date"),
		Description: field(form, "description"),
	}
}

// budgetInputs collects the budget:<category> fields. Empty inputs are
// kept so the session can drop them.
func budgetInputs(form url.Values) map[string]string {
	out := make(map[string]string)
	for key := range form {
		category, ok := strings.CutPrefix(key, budgetFieldPrefix)
		if !ok {
			continue
		}
		category = sanitizeInput(category)
		if category == "" {
			continue
		}
		out[category] = field(form, key)
	}
	return out
}
