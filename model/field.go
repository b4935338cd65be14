package model

import "github.com/pkg/errors"

// FieldType enumerates the question kinds a survey can hold.
// "choice" exists only in the editor UI: by the time a field reaches the
// document it has been materialized into selection or pick_multi.
type FieldType string

const (
	ShortAnswer FieldType = "short_answer"
	LongAnswer  FieldType = "long_answer"
	Selection   FieldType = "selection"
	PickMulti   FieldType = "pick_multi"
)

func (t FieldType) Valid() bool {
	switch t {
	case ShortAnswer, LongAnswer, Selection, PickMulti:
		return true
	}
	return false
}

// HasOptions reports whether the type carries an option list.
func (t FieldType) HasOptions() bool {
	return t == Selection || t == PickMulti
}

func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(s)
	if !t.Valid() {
		return "", errors.Wrapf(ErrWrongFieldType, "unknown field type %q", s)
	}
	return t, nil
}

// Role marks a field injected for a respondent role. Role fields gate
// navigation only and are never persisted as survey content.
type Role string

const (
	RoleNone    Role = ""
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
)

var (
	ErrInvalidLabel   = errors.New("invalid field label")
	ErrEmptyOption    = errors.New("empty option value")
	ErrWrongFieldType = errors.New("wrong field type")
	ErrUnknownField   = errors.New("unknown field")
)

// Field is one question of a survey.
type Field struct {
	Identifier string
	Type       FieldType
	Ordinal    int
	Label      string

	// Value holds scalar input (text types, the selected option text for
	// selection). Values holds the checked option texts for pick_multi.
	Value  string
	Values []string

	Options []string

	// Placeholder is true while Value still equals the default prompt text
	// instead of real input.
	Placeholder bool
	Deleted     bool
	Role        Role

	// pinned is set once the editor explicitly selects an option, so that
	// later AddOption calls stop stealing the selection.
	pinned bool
}

// Pinned reports whether the current selection was made explicitly.
func (f *Field) Pinned() bool {
	return f.pinned
}

// Checked reports whether a pick_multi option is currently set.
func (f *Field) Checked(option string) bool {
	for _, v := range f.Values {
		if v == option {
			return true
		}
	}
	return false
}

// SetChecked adds or removes a pick_multi option value.
func (f *Field) SetChecked(option string, checked bool) {
	if checked {
		if !f.Checked(option) {
			f.Values = append(f.Values, option)
		}
		return
	}
	for i, v := range f.Values {
		if v == option {
			f.Values = append(f.Values[:i], f.Values[i+1:]...)
			return
		}
	}
}
