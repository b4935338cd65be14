package routes

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/gmassari/dyn-survey/model"
)

// saveFields replaces the persisted field definitions of a survey with the
// live, non-role fields of a document, in display order. Role-specific
// fields gate navigation only and are never stored as content.
func saveFields(ctx context.Context, tx *sql.Tx, surveyId int, doc *model.Document) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM survey_field
		WHERE survey_id = ?`,
		surveyId,
	)
	if err != nil {
		return errors.Wrap(err, "delete fields")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO survey_field (survey_id, identifier, position, type, label, value, options)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	position := 0
	for _, f := range doc.Fields() {
		if f.Role != model.RoleNone {
			continue
		}

		var optionsJson []byte
		if len(f.Options) > 0 {
			if optionsJson, err = json.Marshal(f.Options); err != nil {
				return errors.Wrapf(err, "marshal options of %q", f.Identifier)
			}
		}

		value := f.Value
		if f.Placeholder {
			// pristine prompts must not persist as authored values
			value = ""
		}

		_, err = stmt.ExecContext(ctx, surveyId, f.Identifier, position, string(f.Type), f.Label, value, string(optionsJson))
		if err != nil {
			return errors.Wrapf(err, "insert field %q", f.Identifier)
		}
		position++
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadSubmissionRecord fetches the answers a respondent IP already stored for
// a survey, decoded from their JSON column form back into the string or
// []string shapes the take session seeds from. The declared role comes back
// alongside so role-specific fields can be rebuilt for redisplay.
func loadSubmissionRecord(ctx context.Context, q queryer, surveyId int, ip string) (map[string]any, string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT s.role, f.identifier, f.value
		FROM submission s
		JOIN submission_field f ON (f.submission_id = s.id)
		WHERE s.survey_id = ?
			AND s.ip = ?`,
		surveyId,
		ip,
	)
	if err != nil {
		return nil, "", errors.Wrap(err, "query submission record")
	}
	defer rows.Close()

	record := map[string]any{}
	role := ""
	for rows.Next() {
		var identifier, value string
		if err := rows.Scan(&role, &identifier, &value); err != nil {
			return nil, "", errors.Wrap(err, "scan submission field")
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			return nil, "", errors.Wrapf(err, "parse value of %q", identifier)
		}
		switch v := decoded.(type) {
		case string:
			record[identifier] = v
		case []any:
			values := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					values = append(values, s)
				}
			}
			record[identifier] = values
		}
	}
	return record, role, rows.Err()
}

// loadDocument rebuilds a document from the persisted definition, in
// fixed-at-creation order. Identifiers are restored verbatim, never
// re-synthesized.
func loadDocument(ctx context.Context, q queryer, surveyId int) (*model.Document, bool, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT f.identifier, f.type, f.label, f.value, f.options
		FROM survey s
		LEFT OUTER JOIN survey_field f ON (s.id = f.survey_id)
		WHERE s.id = ?
		ORDER BY f.position`,
		surveyId,
	)
	if err != nil {
		return nil, false, errors.Wrap(err, "query fields")
	}
	defer rows.Close()

	doc := model.NewDocument()
	found := false
	for rows.Next() {
		found = true
		var identifier, typ, label, value, opts sql.NullString
		if err := rows.Scan(&identifier, &typ, &label, &value, &opts); err != nil {
			return nil, false, errors.Wrap(err, "scan field")
		}
		if !identifier.Valid {
			// survey exists but has no fields yet
			continue
		}

		fieldType, err := model.ParseFieldType(typ.String)
		if err != nil {
			return nil, false, errors.Wrapf(err, "field %q", identifier.String)
		}

		f := &model.Field{
			Identifier: identifier.String,
			Type:       fieldType,
			Label:      label.String,
			Value:      value.String,
		}
		if ord, ft, _, decodeErr := model.DecodeName(identifier.String); decodeErr == nil && ft == fieldType {
			f.Ordinal = ord
		}
		if opts.String != "" {
			if err := json.Unmarshal([]byte(opts.String), &f.Options); err != nil {
				return nil, false, errors.Wrapf(err, "parse options of %q", identifier.String)
			}
		}
		if err := doc.RestoreField(f); err != nil {
			return nil, false, err
		}
	}
	return doc, found, rows.Err()
}
