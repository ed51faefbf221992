package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestReadForm(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        map[string]string
	}{
		{
			name:        "form encoded",
			contentType: "application/x-www-form-urlencoded",
			body:        "type=expense&category=Groceries&amount=12.50",
			want:        map[string]string{"type": "expense", "category": "Groceries", "amount": "12.50"},
		},
		{
			name:        "json strings and numbers",
			contentType: "application/json",
			body:        `{"type":"income","amount":1200.5,"category":"Salary"}`,
			want:        map[string]string{"type": "income", "amount": "1200.5", "category": "Salary"},
		},
		{
			name:        "json nested budgets",
			contentType: "application/json; charset=utf-8",
			body:        `{"budgets":{"Groceries":"50","Dining Out":25}}`,
			want:        map[string]string{"budget:Groceries": "50", "budget:Dining Out": "25"},
		},
		{
			name:        "empty json body",
			contentType: "application/json",
			body:        "",
			want:        map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			form, err := readForm(httptest.NewRecorder(), req)
			if err != nil {
				t.Fatalf("readForm error: %v", err)
			}
			if len(form) != len(tt.want) {
				t.Fatalf("got %d fields %v, want %d", len(form), form, len(tt.want))
			}
			for key, want := range tt.want {
				if got := form.Get(key); got != want {
					t.Errorf("field %q = %q, want %q", key, got, want)
				}
			}
		})
	}
}

func TestReadFormErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	if _, err := readForm(httptest.NewRecorder(), req); err == nil {
		t.Fatal("expected error for malformed JSON")
	}

	big := strings.Repeat("a", maxBodyBytes+1)
	req = httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader("name="+big))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if _, err := readForm(httptest.NewRecorder(), req); !errors.Is(err, errBodyTooLarge) {
		t.Fatalf("expected errBodyTooLarge, got %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  Groceries  ":       "Groceries",
		"line\nbreak":         "line\nbreak",
		"tab\tkept":           "tab\tkept",
		"bell\x07gone":        "bellgone",
		"\x00null\x1bescape ": "nullescape",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTransactionInput(t *testing.T) {
	form := url.Values{
		"type":        {" expense "},
		"category":    {"Groceries"},
		"amount":      {"12.50"},
		"date":        {"2025-03-15"},
		"description": {"weekly\x07 shop"},
	}
	in := transactionInput(form)
	if in.Type != "expense" || in.Category != "Groceries" || in.Amount != "12.50" || in.Date != "2025-03-15" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if in.Description != "weekly shop" {
		t.Fatalf("description = %q", in.Description)
	}
}

func TestBudgetInputs(t *testing.T) {
	form := url.Values{
		"budget:Groceries":  {"50"},
		"budget:Dining Out": {""},
		"budget: ":          {"10"},
		"name":              {"ignored"},
	}
	got := budgetInputs(form)
	if len(got) != 2 {
		t.Fatalf("got %v, want Groceries and Dining Out", got)
	}
	if got["Groceries"] != "50" {
		t.Errorf("Groceries = %q", got["Groceries"])
	}
	if v, ok := got["Dining Out"]; !ok || v != "" {
		t.Errorf("Dining Out = %q, %v", v, ok)
	}
}
