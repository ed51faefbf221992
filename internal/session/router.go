package session

import (
	"fmt"
	"sync"
)

// Screen selects what the front end renders.
type Screen string

const (
	ScreenDashboard      Screen = "dashboard"
	ScreenAddTransaction Screen = "addTransaction"
	ScreenBudgetPlanner  Screen = "budgetPlanner"
	ScreenUserProfile    Screen = "userProfile"
)

var screens = []Screen{ScreenDashboard, ScreenAddTransaction, ScreenBudgetPlanner, ScreenUserProfile}

// Screens lists every screen in menu order.
func Screens() []Screen {
	return append([]Screen(nil), screens...)
}

func ParseScreen(s string) (Screen, error) {
	for _, sc := range screens {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown screen %q", s)
}

// Router holds the active screen. It starts on the dashboard and has no
// terminal state.
type Router struct {
	mu      sync.Mutex
	current Screen
}

func NewRouter() *Router {
	return &Router{current: ScreenDashboard}
}

func (r *Router) Current() Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate sets the screen directly.
func (r *Router) Navigate(s Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = s
}

// Cancel abandons the current screen.
func (r *Router) Cancel() {
	r.Navigate(ScreenDashboard)
}

// Complete is called after an intent succeeded on its screen.
func (r *Router) Complete() {
	r.Navigate(ScreenDashboard)
}
