package chat

import (
	"time"

	"github.com/bz888/oblaka/internal/api"
	"github.com/bz888/oblaka/internal/prefs"
)

// Event is an input to Reduce.
type Event interface {
	event()
}

type (
	InputChanged struct{ Text string }

	// SendRequested sends the pending input.
	SendRequested struct{ At time.Time }

	// ExampleSelected fills the input with Question and sends it.
	ExampleSelected struct {
		Question string
		At       time.Time
	}

	ChatSucceeded struct {
		Response api.ChatResponse
		At       time.Time
	}

	ChatFailed struct {
		Err error
		At  time.Time
	}

	ClearRequested struct{}

	ClearAnswered struct{ Confirmed bool }

	HealthChecked struct {
		Health *api.HealthStatus
		Err    error
	}

	ModelsLoaded struct {
		Models []api.ModelDescriptor
		Err    error
	}

	ModelSelected struct{ ID string }

	PreferencesChanged struct{ Prefs prefs.Preferences }
)

func (InputChanged) event()       {}
func (SendRequested) event()      {}
func (ExampleSelected) event()    {}
func (ChatSucceeded) event()      {}
func (ChatFailed) event()         {}
func (ClearRequested) event()     {}
func (ClearAnswered) event()      {}
func (HealthChecked) event()      {}
func (ModelsLoaded) event()       {}
func (ModelSelected) event()      {}
func (PreferencesChanged) event() {}

// Command is a side effect requested by Reduce.
type Command interface {
	command()
}

type (
	IssueChat struct{ Request api.ChatRequest }

	SavePreferences struct{ Prefs prefs.Preferences }

	// Notify asks for the completion sound.
	Notify struct{}
)

func (IssueChat) command()       {}
func (SavePreferences) command() {}
func (Notify) command()          {}
