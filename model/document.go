package model

import "github.com/pkg/errors"

// Role-specific fields carry a non-numeric "NA" ordinal token so that they
// can never collide with, or decode as, an authored field identifier.
const (
	RoleProjectName = NamePrefix + "NA" + NameSeparator + "selection" + NameSeparator + "project"
	RoleGradeName   = NamePrefix + "NA" + NameSeparator + "selection" + NameSeparator + "grade"
)

// Document is the ordered collection of fields under edit or take.
// Slice order is display order; the Ordinal recorded on each field is fixed
// at creation time and only ever used for identifier synthesis.
type Document struct {
	fields []*Field
	byName map[string]*Field

	// ledger accumulates identifiers removed during this edit session, in
	// removal order, so the persistence layer can purge historical answers.
	ledger    []string
	ledgerSet map[string]bool
}

func NewDocument() *Document {
	return &Document{
		byName:    map[string]*Field{},
		ledgerSet: map[string]bool{},
	}
}

// Fields returns the live fields in display order.
func (d *Document) Fields() []*Field {
	out := make([]*Field, len(d.fields))
	copy(out, d.fields)
	return out
}

func (d *Document) Len() int {
	return len(d.fields)
}

func (d *Document) Field(identifier string) (*Field, error) {
	f, ok := d.byName[identifier]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownField, "no field %q", identifier)
	}
	return f, nil
}

// Ledger returns the identifiers deleted so far, in removal order.
func (d *Document) Ledger() []string {
	out := make([]string, len(d.ledger))
	copy(out, d.ledger)
	return out
}

// AddField creates a field at the end of the document. The ordinal starts at
// the current live field count and is bumped past any identifier already in
// use or already deleted, so an add/delete/add sequence can never mint a
// duplicate or resurrect a ledgered name.
func (d *Document) AddField(typ FieldType, label string, options ...string) (*Field, error) {
	if !typ.Valid() {
		return nil, errors.Wrapf(ErrWrongFieldType, "cannot add field of type %q", string(typ))
	}
	if len(options) > 0 && !typ.HasOptions() {
		return nil, errors.Wrapf(ErrWrongFieldType, "type %q takes no options", string(typ))
	}

	ordinal := len(d.fields)
	name, err := EncodeName(ordinal, typ, label)
	if err != nil {
		return nil, err
	}
	for d.byName[name] != nil || d.ledgerSet[name] {
		ordinal++
		if name, err = EncodeName(ordinal, typ, label); err != nil {
			return nil, err
		}
	}

	f := &Field{
		Identifier: name,
		Type:       typ,
		Ordinal:    ordinal,
		Label:      label,
		Options:    append([]string(nil), options...),
	}
	if typ == Selection && len(f.Options) > 0 {
		f.Value = f.Options[len(f.Options)-1]
	}

	d.fields = append(d.fields, f)
	d.byName[name] = f
	return f, nil
}

// RemoveField soft-deletes a field and records it in the ledger. Removing an
// already-removed identifier fails with ErrUnknownField and never duplicates
// the ledger entry.
func (d *Document) RemoveField(identifier string) error {
	f, ok := d.byName[identifier]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "cannot remove %q", identifier)
	}

	f.Deleted = true
	delete(d.byName, identifier)
	for i, cur := range d.fields {
		if cur == f {
			d.fields = append(d.fields[:i], d.fields[i+1:]...)
			break
		}
	}

	// Role fields are never persisted, so purging their history would be
	// meaningless.
	if f.Role == RoleNone && !d.ledgerSet[identifier] {
		d.ledger = append(d.ledger, identifier)
		d.ledgerSet[identifier] = true
	}
	return nil
}

// ApplyRoleFields replaces the current role-specific fields with the
// canonical set for the given role: mentors answer a project choice followed
// by a grade assignment, students only the project choice. Any other role
// clears them. The result depends on the role alone, so repeated calls with
// the same role are idempotent.
func (d *Document) ApplyRoleFields(role Role) {
	live := d.fields[:0]
	for _, f := range d.fields {
		if f.Role != RoleNone {
			delete(d.byName, f.Identifier)
			continue
		}
		live = append(live, f)
	}
	d.fields = live

	var injected []*Field
	switch role {
	case RoleMentor:
		injected = []*Field{roleProjectField(role), roleGradeField(role)}
	case RoleStudent:
		injected = []*Field{roleProjectField(role)}
	}

	if len(injected) > 0 {
		d.fields = append(injected, d.fields...)
		for _, f := range injected {
			d.byName[f.Identifier] = f
		}
	}
}

func roleProjectField(role Role) *Field {
	return &Field{
		Identifier: RoleProjectName,
		Type:       Selection,
		Label:      "Choose Project",
		Options:    []string{"Survey Taker's Projects For This Program"},
		Value:      "Survey Taker's Projects For This Program",
		Role:       role,
	}
}

func roleGradeField(role Role) *Field {
	return &Field{
		Identifier: RoleGradeName,
		Type:       Selection,
		Label:      "Assign Grade",
		Options:    []string{"Pass/Fail"},
		Value:      "Pass/Fail",
		Role:       role,
	}
}

// AddOption appends an option to a choice-like field. For selection fields
// the newest option becomes the selected one until the editor pins an
// explicit choice via SelectOption.
func (d *Document) AddOption(identifier, option string) error {
	f, ok := d.byName[identifier]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "cannot add option to %q", identifier)
	}
	if !f.Type.HasOptions() {
		return errors.Wrapf(ErrWrongFieldType, "field %q is a %s", identifier, string(f.Type))
	}
	if option == "" {
		return errors.Wrapf(ErrEmptyOption, "field %q", identifier)
	}

	f.Options = append(f.Options, option)
	if f.Type == Selection && !f.pinned {
		f.Value = option
		f.Placeholder = false
	}
	return nil
}

// SelectOption pins the selected option of a selection field.
func (d *Document) SelectOption(identifier, option string) error {
	f, ok := d.byName[identifier]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "cannot select option on %q", identifier)
	}
	if f.Type != Selection {
		return errors.Wrapf(ErrWrongFieldType, "field %q is a %s", identifier, string(f.Type))
	}
	for _, o := range f.Options {
		if o == option {
			f.Value = option
			f.Placeholder = false
			f.pinned = true
			return nil
		}
	}
	return errors.Errorf("option %q not present on field %q", option, identifier)
}

// RemoveOption deletes an option by its literal text. Remaining options keep
// their order; nothing is renumbered because answers key on option text.
func (d *Document) RemoveOption(identifier, option string) error {
	f, ok := d.byName[identifier]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "cannot remove option from %q", identifier)
	}
	if !f.Type.HasOptions() {
		return errors.Wrapf(ErrWrongFieldType, "field %q is a %s", identifier, string(f.Type))
	}
	for i, o := range f.Options {
		if o == option {
			f.Options = append(f.Options[:i], f.Options[i+1:]...)
			if f.Type == Selection && f.Value == option {
				f.Value = ""
				f.pinned = false
			}
			f.SetChecked(option, false)
			return nil
		}
	}
	return errors.Errorf("option %q not present on field %q", option, identifier)
}

// MoveField repositions a live field. Role-specific fields stay in front:
// an authored field cannot be moved before them, and they cannot be moved.
func (d *Document) MoveField(identifier string, pos int) error {
	f, ok := d.byName[identifier]
	if !ok {
		return errors.Wrapf(ErrUnknownField, "cannot move %q", identifier)
	}
	if f.Role != RoleNone {
		return errors.Wrapf(ErrWrongFieldType, "field %q is role-specific", identifier)
	}

	head := 0
	for _, cur := range d.fields {
		if cur.Role != RoleNone {
			head++
		}
	}
	if pos < head {
		pos = head
	}
	if pos >= len(d.fields) {
		pos = len(d.fields) - 1
	}

	cur := -1
	for i, c := range d.fields {
		if c == f {
			cur = i
			break
		}
	}
	d.fields = append(d.fields[:cur], d.fields[cur+1:]...)
	d.fields = append(d.fields[:pos], append([]*Field{f}, d.fields[pos:]...)...)
	return nil
}

// RestoreField re-attaches a field carrying an already-synthesized
// identifier, used when rebuilding a document from a snapshot or from the
// persisted definition. Identifiers are trusted as-is: re-synthesis after a
// failed round-trip would reassign ordinals and break error bindings.
func (d *Document) RestoreField(f *Field) error {
	if f.Identifier == "" {
		return &MalformedIdentifierError{"", "empty identifier"}
	}
	if d.byName[f.Identifier] != nil {
		return errors.Errorf("duplicate identifier %q", f.Identifier)
	}
	if d.ledgerSet[f.Identifier] {
		return errors.Errorf("identifier %q is already deleted", f.Identifier)
	}
	d.fields = append(d.fields, f)
	d.byName[f.Identifier] = f
	return nil
}

// RestoreLedger seeds the deletion ledger from a snapshot.
func (d *Document) RestoreLedger(identifiers []string) error {
	for _, id := range identifiers {
		if d.byName[id] != nil {
			return errors.Errorf("identifier %q is both live and deleted", id)
		}
		if !d.ledgerSet[id] {
			d.ledger = append(d.ledger, id)
			d.ledgerSet[id] = true
		}
	}
	return nil
}
