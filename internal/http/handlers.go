package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"finadvisor/internal/core"
	"finadvisor/internal/log"
	"finadvisor/internal/session"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().BodyString("ok").Write(w)
}

// handleReady is ready once the session signed in and the backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.session.State().AuthReady {
		ServiceUnavailableError("not signed in").Write(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Backend not ready", log.FieldError, err.Error())
		ServiceUnavailableError("backend unavailable").Write(w)
		return
	}
	NewResponse().BodyString("ready").Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := newPageData(s.session.State(), s.clock().Format(core.DateLayout))
	s.render(w, r, "index.html", data)
}

// handleStatus renders only the status line, polled by the page script.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "status", newStatus(s.session.State().Status))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).Failure(r.Context(), "Template execution failed", log.OpRender, err,
			"template", name)
		InternalServerError("Could not render page").Write(w)
	}
}

// intent parses the body, runs fn and redirects back to the page. Rejected
// intents are not HTTP errors: the session already set the status message
// the page shows.
func (s *Server) intent(name string, fn func(ctx context.Context, form url.Values) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := readForm(w, r)
		if errors.Is(err, errBodyTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "Request body too large").Write(w)
			return
		}
		if err != nil {
			BadRequestError("Invalid request format").Write(w)
			return
		}

		ctx := r.Context()
		if err := fn(ctx, form); err != nil {
			if errors.Is(err, errBadScreen) {
				BadRequestError(err.Error()).Write(w)
				return
			}
			log.FromContext(ctx).DebugContext(ctx, "Intent rejected",
				log.FieldOperation, name, log.FieldError, err.Error())
		}

		NewResponse().
			Redirect("/").
			Notification(s.session.State().Status).
			Write(w)
	}
}

var errBadScreen = errors.New("unknown screen")

func (s *Server) navigate(_ context.Context, form url.Values) error {
	screen, err := session.ParseScreen(field(form, "screen"))
	if err != nil {
		return errBadScreen
	}
	s.session.Navigate(screen)
	return nil
}

func (s *Server) cancel(context.Context, url.Values) error {
	s.session.Cancel()
	return nil
}

func (s *Server) addTransaction(ctx context.Context, form url.Values) error {
	return s.session.AddTransaction(ctx, transactionInput(form))
}

func (s *Server) deleteTransaction(ctx context.Context, form url.Values) error {
	return s.session.DeleteTransaction(ctx, field(form, "id"))
}

func (s *Server) updateBudgets(ctx context.Context, form url.Values) error {
	return s.session.UpdateBudgets(ctx, budgetInputs(form))
}

func (s *Server) addCategory(ctx context.Context, form url.Values) error {
	return s.session.AddCustomCategory(ctx, field(form, "name"))
}

func (s *Server) updateProfile(ctx context.Context, form url.Values) error {
	return s.session.UpdateProfileName(ctx, field(form, "name"))
}

func (s *Server) toggleTheme(context.Context, url.Values) error {
	return s.session.ToggleDarkMode()
}
