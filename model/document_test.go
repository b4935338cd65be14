package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddField_FirstField(t *testing.T) {
	doc := NewDocument()

	f, err := doc.AddField(ShortAnswer, "Name")
	require.NoError(t, err)

	ordinal, typ, label, err := DecodeName(f.Identifier)
	require.NoError(t, err)
	assert.Equal(t, 0, ordinal)
	assert.Equal(t, ShortAnswer, typ)
	assert.Equal(t, "Name", label)
}

func TestAddField_UniqueIdentifiers(t *testing.T) {
	doc := NewDocument()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		f, err := doc.AddField(ShortAnswer, fmt.Sprintf("Question %d", i%5))
		require.NoError(t, err)
		require.False(t, seen[f.Identifier], "duplicate identifier %q", f.Identifier)
		seen[f.Identifier] = true
	}
}

func TestAddField_NeverResurrectsDeletedIdentifier(t *testing.T) {
	doc := NewDocument()

	a, err := doc.AddField(ShortAnswer, "Name")
	require.NoError(t, err)
	require.NoError(t, doc.RemoveField(a.Identifier))

	// same live count, type and label as the deleted field
	b, err := doc.AddField(ShortAnswer, "Name")
	require.NoError(t, err)
	assert.NotEqual(t, a.Identifier, b.Identifier)
	assert.NotContains(t, doc.Ledger(), b.Identifier)
}

func TestAddField_RejectsEmptyLabel(t *testing.T) {
	doc := NewDocument()

	_, err := doc.AddField(LongAnswer, "   ")
	assert.ErrorIs(t, err, ErrInvalidLabel)
	assert.Zero(t, doc.Len())
}

func TestAddField_RejectsOptionsOnTextTypes(t *testing.T) {
	doc := NewDocument()

	_, err := doc.AddField(ShortAnswer, "Name", "Red")
	assert.ErrorIs(t, err, ErrWrongFieldType)
	assert.Zero(t, doc.Len())
}

func TestRemoveField(t *testing.T) {
	doc := NewDocument()
	f, err := doc.AddField(ShortAnswer, "Name")
	require.NoError(t, err)

	require.NoError(t, doc.RemoveField(f.Identifier))
	assert.True(t, f.Deleted)
	assert.Zero(t, doc.Len())
	assert.Equal(t, []string{f.Identifier}, doc.Ledger())

	_, err = doc.Field(f.Identifier)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestRemoveField_TwiceNeverDuplicatesLedger(t *testing.T) {
	doc := NewDocument()
	f, err := doc.AddField(ShortAnswer, "Name")
	require.NoError(t, err)

	require.NoError(t, doc.RemoveField(f.Identifier))
	err = doc.RemoveField(f.Identifier)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Equal(t, []string{f.Identifier}, doc.Ledger())
}

func TestRemoveField_Unknown(t *testing.T) {
	doc := NewDocument()
	err := doc.RemoveField("survey__0__short_answer__Name")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Empty(t, doc.Ledger())
}

func identifiers(doc *Document) []string {
	var out []string
	for _, f := range doc.Fields() {
		out = append(out, f.Identifier)
	}
	return out
}

func TestApplyRoleFields(t *testing.T) {
	doc := NewDocument()
	authored, err := doc.AddField(ShortAnswer, "Name")
	require.NoError(t, err)

	doc.ApplyRoleFields(RoleMentor)
	assert.Equal(t, []string{RoleProjectName, RoleGradeName, authored.Identifier}, identifiers(doc))

	// switching roles replaces, never merges
	doc.ApplyRoleFields(RoleStudent)
	assert.Equal(t, []string{RoleProjectName, authored.Identifier}, identifiers(doc))

	doc.ApplyRoleFields(Role("observer"))
	assert.Equal(t, []string{authored.Identifier}, identifiers(doc))
}

func TestApplyRoleFields_Idempotent(t *testing.T) {
	doc := NewDocument()
	_, err := doc.AddField(ShortAnswer, "Name")
	require.NoError(t, err)

	doc.ApplyRoleFields(RoleMentor)
	first := identifiers(doc)
	doc.ApplyRoleFields(RoleMentor)
	assert.Equal(t, first, identifiers(doc))
}

func TestApplyRoleFields_NeverTouchesLedger(t *testing.T) {
	doc := NewDocument()
	doc.ApplyRoleFields(RoleMentor)
	doc.ApplyRoleFields(RoleNone)
	assert.Empty(t, doc.Ledger())
}

func TestAddOption(t *testing.T) {
	doc := NewDocument()
	f, err := doc.AddField(Selection, "Color")
	require.NoError(t, err)

	require.NoError(t, doc.AddOption(f.Identifier, "Red"))
	require.NoError(t, doc.AddOption(f.Identifier, "Green"))
	assert.Equal(t, []string{"Red", "Green"}, f.Options)
	// newest option is selected until the editor pins one
	assert.Equal(t, "Green", f.Value)
}

func TestAddOption_Errors(t *testing.T) {
	doc := NewDocument()
	selection, err := doc.AddField(Selection, "Color")
	require.NoError(t, err)
	text, err := doc.AddField(ShortAnswer, "Name")
	require.NoError(t, err)

	assert.ErrorIs(t, doc.AddOption(selection.Identifier, ""), ErrEmptyOption)
	assert.ErrorIs(t, doc.AddOption(text.Identifier, "Red"), ErrWrongFieldType)
	assert.ErrorIs(t, doc.AddOption("survey__9__selection__Nope", "Red"), ErrUnknownField)
}

func TestSelectOption_Pins(t *testing.T) {
	doc := NewDocument()
	f, err := doc.AddField(Selection, "Color")
	require.NoError(t, err)

	require.NoError(t, doc.AddOption(f.Identifier, "Red"))
	require.NoError(t, doc.SelectOption(f.Identifier, "Red"))
	require.NoError(t, doc.AddOption(f.Identifier, "Green"))
	assert.Equal(t, "Red", f.Value)

	assert.Error(t, doc.SelectOption(f.Identifier, "Blue"))
}

func TestRemoveOption(t *testing.T) {
	doc := NewDocument()
	f, err := doc.AddField(PickMulti, "Toppings", "Ham", "Olives", "Egg")
	require.NoError(t, err)
	f.SetChecked("Olives", true)

	require.NoError(t, doc.RemoveOption(f.Identifier, "Olives"))
	assert.Equal(t, []string{"Ham", "Egg"}, f.Options)
	assert.False(t, f.Checked("Olives"))
}

func TestMoveField(t *testing.T) {
	doc := NewDocument()
	a, err := doc.AddField(ShortAnswer, "A")
	require.NoError(t, err)
	b, err := doc.AddField(ShortAnswer, "B")
	require.NoError(t, err)
	doc.ApplyRoleFields(RoleStudent)

	// authored fields cannot be moved in front of role fields
	require.NoError(t, doc.MoveField(b.Identifier, 0))
	assert.Equal(t, []string{RoleProjectName, b.Identifier, a.Identifier}, identifiers(doc))

	assert.ErrorIs(t, doc.MoveField(RoleProjectName, 2), ErrWrongFieldType)
	assert.ErrorIs(t, doc.MoveField("survey__9__short_answer__Nope", 0), ErrUnknownField)
}

func TestRestoreField(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.RestoreField(&Field{Identifier: "survey__0__short_answer__Name", Type: ShortAnswer, Label: "Name"}))

	assert.Error(t, doc.RestoreField(&Field{Identifier: "survey__0__short_answer__Name", Type: ShortAnswer}))
	assert.Error(t, doc.RestoreField(&Field{}))

	require.NoError(t, doc.RestoreLedger([]string{"survey__1__short_answer__Old"}))
	assert.Error(t, doc.RestoreField(&Field{Identifier: "survey__1__short_answer__Old", Type: ShortAnswer}))
	assert.Error(t, doc.RestoreLedger([]string{"survey__0__short_answer__Name"}))
}
