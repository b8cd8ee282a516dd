package domain

import "errors"

// ErrEmptyScript is returned when a player is started with no steps.
var ErrEmptyScript = errors.New("script is empty")

// ErrUnknownSender is returned when a message names a sender outside the closed set.
var ErrUnknownSender = errors.New("unknown sender")

// ErrUnknownCue is returned when a cue name is not part of the closed set.
var ErrUnknownCue = errors.New("unknown cue")

// ErrUnknownChoice is returned when a wizard selection is not offered by the current category.
var ErrUnknownChoice = errors.New("unknown choice")

// ErrInvalidContact is returned when captured contact data fails the form rules.
var ErrInvalidContact = errors.New("invalid contact")

// ErrUnknownPage is returned when a page path is not part of the funnel.
var ErrUnknownPage = errors.New("unknown page")

// ErrNotMounted is returned when an operation targets a visitor with no active engine.
var ErrNotMounted = errors.New("no engine mounted")

// ErrScriptNotFound is returned when a loader has no script with the requested id.
var ErrScriptNotFound = errors.New("script not found")
