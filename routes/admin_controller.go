package routes

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ajg/form"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/gmassari/dyn-survey/app"
	"github.com/gmassari/dyn-survey/httpx"
	"github.com/gmassari/dyn-survey/log"
	"github.com/gmassari/dyn-survey/model"
	"github.com/gmassari/dyn-survey/session"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		// the snapshot is the source of truth for the field structure
		doc, err := session.Hydrate(survey.Snapshot)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_snapshot", "invalid snapshot: %s", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var surveyId int
		err = tx.QueryRowContext(r.Context(), `
		INSERT INTO survey (title, description, snapshot) VALUES (?, ?, ?)
		RETURNING id`,
			survey.Title,
			survey.Description,
			survey.Snapshot,
		).Scan(&surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		if err = saveFields(r.Context(), tx, surveyId, doc); err != nil {
			httpx.LogInternalError(w, "db.insert_survey.fields", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": surveyId,
		})
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
		SELECT s.id, s.version, s.title, s.description
		FROM survey s`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.Survey{}
		for rows.Next() {
			s := model.Survey{}
			err = rows.Scan(&s.ID, &s.Version, &s.Title, &s.Description)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
				return
			}

			surveys = append(surveys, s)
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey := model.Survey{}
		err = app.QueryRowContext(r.Context(), `
			SELECT s.id, s.version, s.title, s.description, s.snapshot
			FROM survey s
			WHERE s.id = ?`,
			surveyId,
		).Scan(&survey.ID, &survey.Version, &survey.Title, &survey.Description, &survey.Snapshot)
		if err != nil {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}

		doc, _, err := loadDocument(r.Context(), app.DB, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey.fields", err)
			return
		}
		for i, f := range doc.Fields() {
			survey.Fields = append(survey.Fields, model.SurveyField{
				Identifier: f.Identifier,
				Position:   i,
				Type:       string(f.Type),
				Label:      f.Label,
				Value:      f.Value,
				Options:    f.Options,
			})
		}

		render.JSON(w, r, survey)
	}
}

// editForm is the widget's submit-time form: meta fields beside the dynamic
// survey__* name/value pairs.
type editForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Version     int    `form:"version"`
	Snapshot    string `form:"survey_html"`
	Deleted     string `form:"__deleted__"`
}

// UpdateSurvey consumes the edit widget submission: the structural snapshot,
// the flat field payload and the comma-joined deletion ledger. Answers
// recorded against deleted identifiers are purged for good.
func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.read_body")
			return
		}

		meta := editForm{}
		decoder := form.NewDecoder(strings.NewReader(string(body)))
		decoder.IgnoreUnknownKeys(true)
		if err = decoder.Decode(&meta); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		doc, err := session.Hydrate(meta.Snapshot)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_snapshot", "invalid snapshot: %s", err)
			return
		}

		// apply the flat payload on top of the snapshot structure
		values, err := url.ParseQuery(string(body))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		for name, vv := range values {
			if !strings.HasPrefix(name, model.NamePrefix) {
				continue
			}
			f, err := doc.Field(name)
			if err != nil {
				log.Debugf("update_survey: payload name %q not in snapshot", name)
				continue
			}
			if f.Type == model.PickMulti {
				f.Values = vv
			} else if len(vv) > 0 {
				f.Value = vv[0]
				f.Placeholder = false
			}
		}

		deleted := doc.Ledger()
		if meta.Deleted != "" {
			deleted = append(deleted, strings.Split(meta.Deleted, ",")...)
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		if err = saveFields(r.Context(), tx, surveyId, doc); err != nil {
			httpx.LogInternalError(w, "db.update_survey.fields", err)
			return
		}

		// purge historical answers tied to deleted identifiers
		for _, identifier := range deleted {
			_, err = tx.ExecContext(r.Context(), `
				DELETE FROM submission_field
				WHERE identifier = ?
					AND submission_id IN (
						SELECT id FROM submission WHERE survey_id = ?
					)`,
				identifier,
				surveyId,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.update_survey.purge_deleted", err)
				return
			}
		}

		res, err := tx.ExecContext(r.Context(), `
			UPDATE survey
			SET
				title = ?,
				description = ?,
				snapshot = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			meta.Title,
			meta.Description,
			meta.Snapshot,
			surveyId,
			meta.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_survey.verify.conflict")
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		for _, stmt := range []string{
			`DELETE FROM submission_field
			WHERE submission_id IN (SELECT id FROM submission WHERE survey_id = ?)`,
			`DELETE FROM submission WHERE survey_id = ?`,
			`DELETE FROM survey_field WHERE survey_id = ?`,
		} {
			if _, err = tx.ExecContext(r.Context(), stmt, surveyId); err != nil {
				httpx.LogInternalError(w, "db.delete_survey.cascade", err)
				return
			}
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM survey WHERE id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSurveySubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM survey WHERE id = ?`,
			surveyId,
		).Scan(&exists)
		if err != nil {
			httpx.LogNotFound(w, "get_submissions", surveyId)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT s.id, s.time, s.ip, s.role, v.identifier, v.value
			FROM submission s
			INNER JOIN submission_field v ON (s.id = v.submission_id)
			WHERE s.survey_id = ?
			ORDER BY s.id`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}
		defer rows.Close()

		submissions := []model.Submission{}
		for rows.Next() {
			s := model.Submission{}
			var identifier, value string

			err = rows.Scan(&s.ID, &s.Time, &s.IP, &s.Role, &identifier, &value)
			if err != nil {
				httpx.LogInternalError(w, "db.get_submissions.scan", err)
				return
			}

			var parsed any
			if err = render.DecodeJSON(strings.NewReader(value), &parsed); err != nil {
				httpx.LogInternalError(w, "db.get_submissions.parse_value", err)
				return
			}

			lastIdx := len(submissions) - 1
			if lastIdx > -1 && submissions[lastIdx].ID == s.ID {
				submissions[lastIdx].Values[identifier] = parsed
			} else {
				s.Values = map[string]any{identifier: parsed}
				submissions = append(submissions, s)
			}
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}
