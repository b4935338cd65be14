package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmassari/dyn-survey/model"
)

// scriptedPrompter replays canned answers to the widget's modal prompts.
type scriptedPrompter struct {
	texts    []string
	cancels  int
	confirms []bool
}

func (p *scriptedPrompter) Text(string) (string, bool) {
	if p.cancels > 0 {
		p.cancels--
		return "", false
	}
	if len(p.texts) == 0 {
		return "", false
	}
	value := p.texts[0]
	p.texts = p.texts[1:]
	return value, true
}

func (p *scriptedPrompter) Confirm(string) bool {
	if len(p.confirms) == 0 {
		return false
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer
}

func newEditSession(t *testing.T, prompter *scriptedPrompter) *EditSession {
	t.Helper()
	if prompter == nil {
		prompter = &scriptedPrompter{}
	}
	return NewEdit(model.NewDocument(), StandardDefaults(), prompter)
}

func TestAddField_SeedsPlaceholder(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name"}})

	f, err := s.AddField("short_answer")
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, "Write a Custom Prompt...", f.Value)
	assert.True(t, f.Placeholder)
	assert.Equal(t, Pristine, s.State(f.Identifier))
}

func TestAddField_CancelledPromptAddsNothing(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{cancels: 1})

	f, err := s.AddField("short_answer")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Zero(t, s.Document().Len())
}

func TestAddField_EmptyLabelAddsNothing(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{""}})

	f, err := s.AddField("long_answer")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Zero(t, s.Document().Len())
}

func TestAddField_ChoiceMaterializes(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"checkboxes", "Toppings", "select", "Color"}})

	f, err := s.AddField("choice")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.PickMulti, f.Type)

	f, err = s.AddField("choice")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.Selection, f.Type)
}

func TestAddField_UnknownKind(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name"}})

	_, err := s.AddField("essay")
	assert.ErrorIs(t, err, model.ErrWrongFieldType)
}

func TestFocusBlur_StateMachine(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name"}})
	f, err := s.AddField("short_answer")
	require.NoError(t, err)

	require.NoError(t, s.Focus(f.Identifier))
	assert.Equal(t, Editing, s.State(f.Identifier))
	assert.Empty(t, f.Value)
	assert.False(t, f.Placeholder)

	// blur with no input reverts to pristine, placeholder restored
	require.NoError(t, s.Blur(f.Identifier, ""))
	assert.Equal(t, Pristine, s.State(f.Identifier))
	assert.Equal(t, "Write a Custom Prompt...", f.Value)
	assert.True(t, f.Placeholder)

	require.NoError(t, s.Focus(f.Identifier))
	require.NoError(t, s.Blur(f.Identifier, "What is your name?"))
	assert.Equal(t, Filled, s.State(f.Identifier))
	assert.Equal(t, "What is your name?", f.Value)
}

func TestFocus_UnknownField(t *testing.T) {
	s := newEditSession(t, nil)
	assert.ErrorIs(t, s.Focus("survey__0__short_answer__Nope"), model.ErrUnknownField)
}

func TestDeleteField_Declined(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name"}, confirms: []bool{false}})
	f, err := s.AddField("short_answer")
	require.NoError(t, err)

	require.NoError(t, s.DeleteField(f.Identifier))
	assert.Equal(t, 1, s.Document().Len())
	assert.Empty(t, s.Document().Ledger())
}

func TestDeleteField_Confirmed(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name"}, confirms: []bool{true}})
	f, err := s.AddField("short_answer")
	require.NoError(t, err)

	require.NoError(t, s.DeleteField(f.Identifier))
	assert.Equal(t, Removed, s.State(f.Identifier))
	assert.Zero(t, s.Document().Len())
	assert.Equal(t, []string{f.Identifier}, s.Document().Ledger())
}

func TestAddOption_Workflow(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"select", "Color", "Red", "Green"}})
	f, err := s.AddField("choice")
	require.NoError(t, err)

	require.NoError(t, s.AddOption(f.Identifier))
	require.NoError(t, s.AddOption(f.Identifier))
	assert.Equal(t, []string{"Red", "Green"}, f.Options)
	assert.Equal(t, "Green", f.Value)
}

func TestAddOption_CancelledAddsNothing(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"select", "Color"}, cancels: 0})
	f, err := s.AddField("choice")
	require.NoError(t, err)

	require.NoError(t, s.AddOption(f.Identifier))
	assert.Empty(t, f.Options)
}

func TestSetRole(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name"}})
	f, err := s.AddField("short_answer")
	require.NoError(t, err)

	s.SetRole(model.RoleMentor)
	fields := s.Document().Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, model.RoleProjectName, fields[0].Identifier)
	assert.Equal(t, model.RoleGradeName, fields[1].Identifier)
	assert.Equal(t, f.Identifier, fields[2].Identifier)
	assert.Equal(t, Filled, s.State(model.RoleGradeName))

	s.SetRole(model.RoleStudent)
	fields = s.Document().Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, model.RoleProjectName, fields[0].Identifier)
	assert.Equal(t, f.Identifier, fields[1].Identifier)
	assert.Equal(t, Pristine, s.State(f.Identifier))
}

func TestSubmit_PristineSerializesEmpty(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name"}})
	f, err := s.AddField("short_answer")
	require.NoError(t, err)

	sub, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, "", sub.Payload[f.Identifier])
}

func TestSubmit_DeletedFieldOmitted(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name", "Age"}, confirms: []bool{true}})
	name, err := s.AddField("short_answer")
	require.NoError(t, err)
	age, err := s.AddField("short_answer")
	require.NoError(t, err)

	require.NoError(t, s.DeleteField(name.Identifier))

	sub, err := s.Submit()
	require.NoError(t, err)
	assert.NotContains(t, sub.Payload, name.Identifier)
	assert.Contains(t, sub.Payload, age.Identifier)
	assert.Equal(t, []string{name.Identifier}, sub.Deleted)
}

func TestRecover_PreservesIdentifiersAndPayload(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name", "select", "Color", "Red", "Green"}})
	name, err := s.AddField("short_answer")
	require.NoError(t, err)
	require.NoError(t, s.Blur(name.Identifier, "Jane"))

	color, err := s.AddField("choice")
	require.NoError(t, err)
	require.NoError(t, s.AddOption(color.Identifier))
	require.NoError(t, s.AddOption(color.Identifier))
	require.NoError(t, s.Document().SelectOption(color.Identifier, "Green"))

	before, err := s.Submit()
	require.NoError(t, err)

	require.NoError(t, s.Recover(before.Snapshot))
	after, err := s.Submit()
	require.NoError(t, err)

	assert.Equal(t, before.Payload, after.Payload)
	assert.Equal(t, "Green", after.Payload[color.Identifier])
	assert.Equal(t, Filled, s.State(name.Identifier))
}

func TestRecover_BlankSnapshotDropsGhostFields(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name"}})
	_, err := s.AddField("short_answer")
	require.NoError(t, err)

	require.NoError(t, s.Recover(""))
	assert.Zero(t, s.Document().Len())
}

func TestRecover_BadSnapshot(t *testing.T) {
	s := newEditSession(t, nil)
	assert.Error(t, s.Recover("<table><tr></tr></table>"))
}

func TestBlur_PromptTextRevertsToPristine(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"Name"}})
	f, err := s.AddField("short_answer")
	require.NoError(t, err)

	require.NoError(t, s.Focus(f.Identifier))
	require.NoError(t, s.Blur(f.Identifier, StandardDefaults().ShortAnswer))
	assert.Equal(t, Pristine, s.State(f.Identifier))
	assert.True(t, f.Placeholder)

	before, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, "", before.Payload[f.Identifier])

	require.NoError(t, s.Recover(before.Snapshot))
	after, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, before.Payload, after.Payload)
}

func TestRecover_KeepsExplicitSelection(t *testing.T) {
	s := newEditSession(t, &scriptedPrompter{texts: []string{"select", "Color", "Red", "Green"}})
	color, err := s.AddField("choice")
	require.NoError(t, err)
	require.NoError(t, s.AddOption(color.Identifier))
	require.NoError(t, s.Document().SelectOption(color.Identifier, "Red"))

	sub, err := s.Submit()
	require.NoError(t, err)
	require.NoError(t, s.Recover(sub.Snapshot))

	require.NoError(t, s.AddOption(color.Identifier))
	f, err := s.Document().Field(color.Identifier)
	require.NoError(t, err)
	assert.Equal(t, []string{"Red", "Green"}, f.Options)
	assert.Equal(t, "Red", f.Value)
}
