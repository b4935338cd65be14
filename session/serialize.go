package session

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/gmassari/dyn-survey/model"
)

// Submission is the submit-time compaction of a document: the flat
// name→value payload handed to the persistence layer, the structural
// snapshot kept only for edit-session recovery, and the deletion ledger
// reported separately so historical answers can be purged.
type Submission struct {
	Payload  map[string]any `json:"payload"`
	Snapshot string         `json:"snapshot"`
	Deleted  []string       `json:"deleted"`
}

type snapshotDoc struct {
	Fields  []snapshotField `json:"fields"`
	Deleted []string        `json:"deleted,omitempty"`
}

type snapshotField struct {
	Identifier  string   `json:"identifier"`
	Type        string   `json:"type"`
	Ordinal     int      `json:"ordinal"`
	Label       string   `json:"label"`
	Value       string   `json:"value,omitempty"`
	Values      []string `json:"values,omitempty"`
	Options     []string `json:"options,omitempty"`
	Placeholder bool     `json:"placeholder,omitempty"`
	Pinned      bool     `json:"pinned,omitempty"`
	Role        string   `json:"role,omitempty"`
}

// Serialize compacts a document for submission. The payload maps each live,
// non-role field identifier to its value; pristine placeholders serialize as
// empty strings, never as the prompt text. Selection answers are the
// selected option's literal text so the option list can be reordered or
// extended later without invalidating stored answers.
func Serialize(doc *model.Document) (Submission, error) {
	sub := Submission{
		Payload: Payload(doc),
		Deleted: doc.Ledger(),
	}

	snap := snapshotDoc{Deleted: doc.Ledger()}
	for _, f := range doc.Fields() {
		snap.Fields = append(snap.Fields, snapshotField{
			Identifier:  f.Identifier,
			Type:        string(f.Type),
			Ordinal:     f.Ordinal,
			Label:       f.Label,
			Value:       f.Value,
			Values:      f.Values,
			Options:     f.Options,
			Placeholder: f.Placeholder,
			Pinned:      f.Pinned(),
			Role:        string(f.Role),
		})
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return Submission{}, errors.Wrap(err, "marshal snapshot")
	}
	sub.Snapshot = string(raw)
	return sub, nil
}

// Payload extracts the flat identifier→value mapping from the live,
// non-role fields. Shared by the edit and take submission paths.
func Payload(doc *model.Document) map[string]any {
	payload := map[string]any{}
	for _, f := range doc.Fields() {
		if f.Role != model.RoleNone {
			continue
		}
		switch {
		case f.Type == model.PickMulti:
			values := make([]string, len(f.Values))
			copy(values, f.Values)
			payload[f.Identifier] = values
		case f.Placeholder:
			payload[f.Identifier] = ""
		default:
			payload[f.Identifier] = f.Value
		}
	}
	return payload
}

// Hydrate reconstructs a document from a snapshot produced by Serialize.
// A blank snapshot yields an empty document: stale ghost fields from an
// aborted edit are dropped rather than restored.
func Hydrate(snapshot string) (*model.Document, error) {
	doc := model.NewDocument()
	if strings.TrimSpace(snapshot) == "" {
		return doc, nil
	}

	var snap snapshotDoc
	if err := json.Unmarshal([]byte(snapshot), &snap); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}

	if err := doc.RestoreLedger(snap.Deleted); err != nil {
		return nil, err
	}
	for _, sf := range snap.Fields {
		typ, err := model.ParseFieldType(sf.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "snapshot field %q", sf.Identifier)
		}
		f := &model.Field{
			Identifier:  sf.Identifier,
			Type:        typ,
			Ordinal:     sf.Ordinal,
			Label:       sf.Label,
			Value:       sf.Value,
			Values:      sf.Values,
			Options:     sf.Options,
			Placeholder: sf.Placeholder,
			Role:        model.Role(sf.Role),
		}
		if err := doc.RestoreField(f); err != nil {
			return nil, err
		}
		if sf.Pinned {
			// re-select so a later AddOption cannot steal the choice
			if err := doc.SelectOption(sf.Identifier, sf.Value); err != nil {
				return nil, errors.Wrapf(err, "snapshot field %q", sf.Identifier)
			}
		}
	}
	return doc, nil
}
