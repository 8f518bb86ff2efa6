// Package app holds the page state and the reducer that evolves it.
//
// State is a plain value. Every user action is a Msg, and Update folds a
// Msg into a State to produce the next one without side effects. Store is
// the single place where the current State lives between requests.
package app

import (
	"time"

	"kesef/internal/core"
	"kesef/internal/ledger"
)

// State is everything the page renders from.
type State struct {
	Ledger ledger.Ledger
	Form   core.Form
	View   core.View
	Theme  core.Theme
}

// Initial returns the state of a freshly loaded page.
func Initial(view core.View, theme core.Theme) State {
	if view == "" {
		view = core.Dashboard
	}
	if theme == "" {
		theme = core.Light
	}
	return State{
		Form:  core.NewForm(),
		View:  view,
		Theme: theme,
	}
}

// Msg is a user action.
type Msg interface {
	isMsg()
}

type (
	// SubmitForm carries the entry form and the identity to give the new
	// transaction if the form is complete.
	SubmitForm struct {
		Form      core.Form
		ID        string
		CreatedAt time.Time
	}

	DeleteTransaction struct {
		ID string
	}

	SetView struct {
		View core.View
	}

	ToggleTheme struct{}

	// Reset discards everything, like reloading the page, and returns to
	// the given view and theme.
	Reset struct {
		View  core.View
		Theme core.Theme
	}
)

func (SubmitForm) isMsg()        {}
func (DeleteTransaction) isMsg() {}
func (SetView) isMsg()           {}
func (ToggleTheme) isMsg()       {}
func (Reset) isMsg()             {}

// Update applies msg to s and returns the next state.
func Update(s State, msg Msg) State {
	switch m := msg.(type) {
	case SubmitForm:
		if !m.Form.Ready() {
			s.Form = m.Form
			return s
		}
		s.Ledger = s.Ledger.Append(core.NewTransaction(m.ID, m.Form, m.CreatedAt))
		s.Form = m.Form.Cleared()
	case DeleteTransaction:
		s.Ledger = s.Ledger.Remove(m.ID)
	case SetView:
		s.View = m.View
	case ToggleTheme:
		s.Theme = s.Theme.Toggle()
	case Reset:
		return Initial(m.View, m.Theme)
	}
	return s
}
