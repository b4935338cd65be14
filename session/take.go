package session

import (
	"github.com/gmassari/dyn-survey/model"
)

// TakeSession is the respondent-facing counterpart of EditSession: it
// hydrates the persisted survey definition in authoring order, applies
// placeholder behavior, and extracts the answer payload on submission.
// There is no deletion ledger and no snapshot recovery on this path.
type TakeSession struct {
	doc      *model.Document
	defaults Defaults
	states   map[string]FieldState

	// prompts holds each field's own placeholder text: on take, the prompt
	// authored at edit time takes precedence over the stock defaults.
	prompts map[string]string
}

// NewTake wraps a hydrated definition for taking. record holds a previous
// response being edited, keyed by identifier; recorded values seed the
// fields and suppress the placeholder. A recorded selection answer is
// promoted to the front of the option list.
func NewTake(doc *model.Document, defaults Defaults, record map[string]any) *TakeSession {
	s := &TakeSession{
		doc:      doc,
		defaults: defaults,
		states:   map[string]FieldState{},
		prompts:  map[string]string{},
	}
	for _, f := range doc.Fields() {
		s.seed(f, record)
	}
	return s
}

func (s *TakeSession) Document() *model.Document {
	return s.doc
}

func (s *TakeSession) State(identifier string) FieldState {
	return s.states[identifier]
}

func (s *TakeSession) seed(f *model.Field, record map[string]any) {
	if f.Role != model.RoleNone {
		s.states[f.Identifier] = Filled
		return
	}

	if record != nil {
		if v, ok := record[f.Identifier]; ok {
			switch value := v.(type) {
			case string:
				if value != "" {
					f.Value = value
					f.Placeholder = false
					if f.Type == model.Selection {
						promoteOption(f, value)
					}
					s.states[f.Identifier] = Filled
					return
				}
			case []string:
				f.Values = append([]string(nil), value...)
				f.Placeholder = false
				s.states[f.Identifier] = Filled
				return
			}
		}
	}

	// The authored prompt text doubles as the placeholder on take; fall
	// back to the stock default when the author left it blank.
	if s.defaults.promptFor(f.Type) != "" {
		prompt := f.Value
		if prompt == "" {
			prompt = s.defaults.promptFor(f.Type)
		}
		s.prompts[f.Identifier] = prompt
		f.Value = prompt
		f.Placeholder = true
		s.states[f.Identifier] = Pristine
		return
	}
	s.states[f.Identifier] = Filled
}

// promoteOption moves a recorded answer to the front of the option list so
// it renders as the selected choice.
func promoteOption(f *model.Field, value string) {
	rest := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		if o != value {
			rest = append(rest, o)
		}
	}
	f.Options = append([]string{value}, rest...)
}

// Focus clears the placeholder when the respondent starts typing.
func (s *TakeSession) Focus(identifier string) error {
	f, err := s.doc.Field(identifier)
	if err != nil {
		return err
	}
	if s.states[identifier] != Pristine {
		return nil
	}
	f.Value = ""
	f.Placeholder = false
	s.states[identifier] = Editing
	return nil
}

// Blur commits the respondent's input, restoring the placeholder when the
// value is left empty or matches the prompt text itself.
func (s *TakeSession) Blur(identifier, value string) error {
	f, err := s.doc.Field(identifier)
	if err != nil {
		return err
	}
	prompt := s.prompts[identifier]
	if prompt == "" {
		prompt = s.defaults.promptFor(f.Type)
	}
	if value == "" || value == prompt {
		f.Value = prompt
		f.Placeholder = prompt != ""
		s.states[identifier] = Pristine
		return nil
	}
	f.Value = value
	f.Placeholder = false
	s.states[identifier] = Filled
	return nil
}

// SetAnswer records a respondent answer directly, as the external form layer
// delivers it: a string for text and selection fields, a []string for
// pick_multi.
func (s *TakeSession) SetAnswer(identifier string, value any) error {
	f, err := s.doc.Field(identifier)
	if err != nil {
		return err
	}
	switch v := value.(type) {
	case []string:
		if f.Type != model.PickMulti {
			return s.Blur(identifier, firstOf(v))
		}
		f.Values = append([]string(nil), v...)
		f.Placeholder = false
		s.states[identifier] = Filled
		return nil
	case string:
		if f.Type == model.Selection {
			return s.doc.SelectOption(identifier, v)
		}
		return s.Blur(identifier, v)
	}
	return s.Blur(identifier, "")
}

func firstOf(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Submit extracts the flat payload, stripping role-specific fields and any
// transient editor markup: only live identifiers and their values survive.
func (s *TakeSession) Submit() map[string]any {
	return Payload(s.doc)
}
