package session

import "github.com/gmassari/dyn-survey/model"

// Prompter abstracts the host page's blocking prompt/confirm channels. Both
// calls are synchronous and modal: no other mutation can interleave while a
// prompt is open, and a cancelled prompt performs no mutation at all.
type Prompter interface {
	// Text asks for a single line of input. ok is false on cancel.
	Text(prompt string) (value string, ok bool)
	// Confirm asks a yes/no question.
	Confirm(prompt string) bool
}

// Defaults carries the placeholder prompt texts shown in place of real
// values. Each session owns its own copy instead of sharing process-wide
// constants.
type Defaults struct {
	ShortAnswer string
	LongAnswer  string
	Option      string
}

// StandardDefaults returns the stock prompt texts.
func StandardDefaults() Defaults {
	return Defaults{
		ShortAnswer: "Write a Custom Prompt...",
		LongAnswer:  "Write a Custom Prompt...",
		Option:      "Add A New Option...",
	}
}

// promptFor returns the placeholder text for a text-like type, or "" for
// choice types, which have no placeholder.
func (d Defaults) promptFor(t model.FieldType) string {
	switch t {
	case model.ShortAnswer:
		return d.ShortAnswer
	case model.LongAnswer:
		return d.LongAnswer
	}
	return ""
}
