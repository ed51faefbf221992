package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterTransitions(t *testing.T) {
	r := NewRouter()
	assert.Equal(t, ScreenDashboard, r.Current())

	r.Navigate(ScreenBudgetPlanner)
	assert.Equal(t, ScreenBudgetPlanner, r.Current())
	r.Cancel()
	assert.Equal(t, ScreenDashboard, r.Current())

	r.Navigate(ScreenUserProfile)
	r.Complete()
	assert.Equal(t, ScreenDashboard, r.Current())
}

func TestParseScreen(t *testing.T) {
	for _, sc := range Screens() {
		got, err := ParseScreen(string(sc))
		require.NoError(t, err)
		assert.Equal(t, sc, got)
	}
	_, err := ParseScreen("settings")
	assert.Error(t, err)
}
