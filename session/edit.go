package session

import (
	"github.com/pkg/errors"

	"github.com/gmassari/dyn-survey/model"
)

// FieldState tracks where a field is in its edit lifecycle.
type FieldState int

const (
	// Pristine: no real input yet, the placeholder prompt is showing.
	Pristine FieldState = iota
	// Editing: the field has focus and the placeholder has been cleared.
	Editing
	// Filled: real input has been committed.
	Filled
	// Removed: the field was deleted. Terminal.
	Removed
)

// EditSession drives the survey author's side of the widget: placeholder
// toggling, the field creation workflow, confirmed deletion, the role
// signal, and snapshot-based recovery after a failed submission.
type EditSession struct {
	doc      *model.Document
	defaults Defaults
	prompter Prompter
	states   map[string]FieldState
}

// NewEdit wraps a document for editing. Text fields with no value are seeded
// with their placeholder prompt.
func NewEdit(doc *model.Document, defaults Defaults, prompter Prompter) *EditSession {
	s := &EditSession{
		doc:      doc,
		defaults: defaults,
		prompter: prompter,
		states:   map[string]FieldState{},
	}
	for _, f := range doc.Fields() {
		s.adopt(f)
	}
	return s
}

func (s *EditSession) Document() *model.Document {
	return s.doc
}

// State returns a field's lifecycle state. Deleted fields report Removed.
func (s *EditSession) State(identifier string) FieldState {
	return s.states[identifier]
}

// adopt registers lifecycle state for a field, seeding the placeholder when
// there is no real value yet.
func (s *EditSession) adopt(f *model.Field) {
	if f.Role != model.RoleNone {
		// Role fields are disabled in the editor; they never cycle.
		s.states[f.Identifier] = Filled
		return
	}

	prompt := s.defaults.promptFor(f.Type)
	switch {
	case f.Value == "" && prompt != "" && len(f.Values) == 0:
		f.Value = prompt
		f.Placeholder = true
		s.states[f.Identifier] = Pristine
	case f.Placeholder || (prompt != "" && f.Value == prompt):
		f.Placeholder = true
		s.states[f.Identifier] = Pristine
	default:
		s.states[f.Identifier] = Filled
	}
}

// Focus moves a pristine field into editing, clearing the placeholder.
func (s *EditSession) Focus(identifier string) error {
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

// Blur commits the entered value. An empty value, or one textually equal to
// the prompt, reverts the field to pristine with the placeholder restored:
// typing the prompt text back in is not real input and must serialize the
// same way an untouched field does.
func (s *EditSession) Blur(identifier, value string) error {
	f, err := s.doc.Field(identifier)
	if err != nil {
		return err
	}
	if prompt := s.defaults.promptFor(f.Type); value == "" || value == prompt {
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

// AddField runs the creation workflow for the given question kind. The
// edit-time meta-kind "choice" asks how to render and materializes as
// selection or pick_multi. A cancelled or empty label aborts the add with no
// document change and no error; the nil field is the rejection notice.
func (s *EditSession) AddField(kind string) (*model.Field, error) {
	typ, err := s.resolveKind(kind)
	if err != nil {
		return nil, err
	}

	label, ok := s.prompter.Text("enter a field name")
	if !ok || label == "" {
		return nil, nil
	}
	if err := model.ValidateLabel(label); err != nil {
		return nil, err
	}

	f, err := s.doc.AddField(typ, label)
	if err != nil {
		return nil, err
	}
	s.adopt(f)
	return f, nil
}

func (s *EditSession) resolveKind(kind string) (model.FieldType, error) {
	if kind == "choice" {
		render, ok := s.prompter.Text("render as select or checkboxes")
		if !ok {
			return "", errors.Wrap(model.ErrWrongFieldType, "choice kind cancelled")
		}
		switch render {
		case "checkboxes":
			return model.PickMulti, nil
		default:
			return model.Selection, nil
		}
	}
	return model.ParseFieldType(kind)
}

// AddOption prompts for a new option on a choice-like field. Cancel or empty
// input aborts silently, mirroring the add-field workflow.
func (s *EditSession) AddOption(identifier string) error {
	if _, err := s.doc.Field(identifier); err != nil {
		return err
	}
	option, ok := s.prompter.Text("Name the new option")
	if !ok || option == "" {
		return nil
	}
	return s.doc.AddOption(identifier, option)
}

// DeleteField asks for confirmation, then removes the field and records it
// in the deletion ledger. Declining leaves everything unchanged.
func (s *EditSession) DeleteField(identifier string) error {
	if _, err := s.doc.Field(identifier); err != nil {
		return err
	}
	if !s.prompter.Confirm("Are you sure you want to delete this field?") {
		return nil
	}
	if err := s.doc.RemoveField(identifier); err != nil {
		return err
	}
	s.states[identifier] = Removed
	return nil
}

// SetRole re-derives the role-specific fields for the respondent's declared
// role. Called on load and on every change of the external role signal.
func (s *EditSession) SetRole(role model.Role) {
	for _, f := range s.doc.Fields() {
		if f.Role != model.RoleNone {
			delete(s.states, f.Identifier)
		}
	}
	s.doc.ApplyRoleFields(role)
	for _, f := range s.doc.Fields() {
		if f.Role != model.RoleNone {
			s.states[f.Identifier] = Filled
		}
	}
}

// Submit compacts the document into the flat payload, the recovery snapshot
// and the deletion ledger. It must complete before the page hands the result
// to the persistence layer.
func (s *EditSession) Submit() (Submission, error) {
	return Serialize(s.doc)
}

// Recover rebuilds the session from the snapshot stored by a previous,
// failed submission. Identifiers come back verbatim from the snapshot;
// re-synthesizing them here would reassign ordinals and detach any
// validation errors already bound to the old names.
func (s *EditSession) Recover(snapshot string) error {
	doc, err := Hydrate(snapshot)
	if err != nil {
		return errors.Wrap(err, "recover edit session")
	}
	s.doc = doc
	s.states = map[string]FieldState{}
	for _, f := range doc.Fields() {
		s.adopt(f)
	}
	return nil
}
