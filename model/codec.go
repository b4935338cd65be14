package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Field identifiers encode their own structural metadata so that a persisted
// answer record stays self-describing even without the document that produced
// it. The grammar is:
//
//	survey__<ordinal>__<type>__<label>
//
// The separator is reserved: a label containing it is rejected at encode
// time, which is what makes the grammar unambiguous on the way back.
const (
	NamePrefix    = "survey__"
	NameSeparator = "__"
)

// MalformedIdentifierError is returned by DecodeName when an identifier does
// not match the grammar. Decoding never falls back to defaults.
type MalformedIdentifierError struct {
	Identifier string
	Reason     string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed field identifier %q: %s", e.Identifier, e.Reason)
}

// ValidateLabel rejects labels that are empty, whitespace-only, or collide
// with the reserved separator sequence.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.Wrap(ErrInvalidLabel, "empty label")
	}
	if strings.Contains(label, NameSeparator) {
		return errors.Wrapf(ErrInvalidLabel, "label %q contains reserved sequence %q", label, NameSeparator)
	}
	return nil
}

// EncodeName synthesizes the unique identifier for a field.
func EncodeName(ordinal int, typ FieldType, label string) (string, error) {
	if !typ.Valid() {
		return "", errors.Wrapf(ErrWrongFieldType, "cannot encode type %q", string(typ))
	}
	if ordinal < 0 {
		return "", errors.Errorf("cannot encode negative ordinal %d", ordinal)
	}
	if err := ValidateLabel(label); err != nil {
		return "", err
	}
	return NamePrefix + strconv.Itoa(ordinal) + NameSeparator + string(typ) + NameSeparator + label, nil
}

// DecodeName parses an identifier back into its structural metadata.
func DecodeName(identifier string) (ordinal int, typ FieldType, label string, err error) {
	rest, found := cutPrefix(identifier, NamePrefix)
	if !found {
		return 0, "", "", &MalformedIdentifierError{identifier, "missing " + NamePrefix + " prefix"}
	}

	parts := strings.SplitN(rest, NameSeparator, 3)
	if len(parts) != 3 {
		return 0, "", "", &MalformedIdentifierError{identifier, "expected ordinal, type and label tokens"}
	}

	ordinal, convErr := strconv.Atoi(parts[0])
	if convErr != nil || ordinal < 0 {
		return 0, "", "", &MalformedIdentifierError{identifier, "ordinal token is not a non-negative integer"}
	}

	typ = FieldType(parts[1])
	if !typ.Valid() {
		return 0, "", "", &MalformedIdentifierError{identifier, "unknown type tag " + strconv.Quote(parts[1])}
	}

	label = parts[2]
	if ValidateLabel(label) != nil {
		return 0, "", "", &MalformedIdentifierError{identifier, "label token is empty or contains the separator"}
	}

	return ordinal, typ, label, nil
}

// strings.CutPrefix arrived in go1.20; keep 1.18 compatibility.
func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
