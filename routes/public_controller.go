package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ajg/form"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/gmassari/dyn-survey/app"
	"github.com/gmassari/dyn-survey/httpx"
	"github.com/gmassari/dyn-survey/log"
	"github.com/gmassari/dyn-survey/model"
	"github.com/gmassari/dyn-survey/session"
)

// PublicGetSurveyById serves the take view: the persisted definition in
// authoring order, with placeholders applied the way the take widget shows
// them. A respondent who already submitted gets the submitted flag and their
// stored answers seeded back into the fields for read-only redisplay.
func PublicGetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey := model.Survey{}
		err = app.QueryRowContext(r.Context(), `
			SELECT s.title, s.description
			FROM survey s
			WHERE s.id = ?`,
			surveyId,
		).Scan(&survey.Title, &survey.Description)
		if err != nil {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}

		ip := remoteIP(r)
		var alreadySubmitted bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM submission
			WHERE survey_id = ?
				AND ip = ?`,
			surveyId,
			ip,
		).Scan(&alreadySubmitted)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			httpx.LogInternalError(w, "db.get_survey.ip", err)
			return
		}
		var record map[string]any
		var role string
		if alreadySubmitted {
			survey.Submitted = true
			record, role, err = loadSubmissionRecord(r.Context(), app.DB, surveyId, ip)
			if err != nil {
				httpx.LogInternalError(w, "db.get_survey.record", err)
				return
			}
		}

		doc, _, err := loadDocument(r.Context(), app.DB, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey.fields", err)
			return
		}
		if alreadySubmitted {
			doc.ApplyRoleFields(model.Role(role))
		}
		ts := session.NewTake(doc, app.Defaults(), record)
		for i, f := range ts.Document().Fields() {
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

type IpCheck struct {
	op     bool
	ip     string
	result chan<- bool
}

// takeForm carries the reserved meta names posted beside the dynamic
// identifier/value pairs.
type takeForm struct {
	Role string `form:"__role__"`
}

// PublicSubmitSurvey receives the respondent's flat name/value payload,
// runs it through a take session and persists the extracted answers. One
// submission per IP, enforced both in flight and against the stored rows.
func PublicSubmitSurvey(app app.App) http.HandlerFunc {
	validateIpStart := make(chan IpCheck)
	go func() {
		submissionIPs := make(map[string]bool)

		for {
			req := <-validateIpStart
			if req.op {
				req.result <- submissionIPs[req.ip]
				submissionIPs[req.ip] = true
			} else {
				delete(submissionIPs, req.ip)
			}
		}
	}()

	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if err = r.ParseForm(); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		meta := takeForm{}
		decoder := form.NewDecoder(strings.NewReader(r.PostForm.Encode()))
		decoder.IgnoreUnknownKeys(true)
		if err = decoder.Decode(&meta); err != nil {
			log.Debugf("submit_survey: no meta fields: %s", err)
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		doc, found, err := loadDocument(r.Context(), tx, surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey.fields", err)
			return
		}
		if !found {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}

		doc.ApplyRoleFields(model.Role(meta.Role))
		ts := session.NewTake(doc, app.Defaults(), nil)
		for _, f := range doc.Fields() {
			if f.Role != model.RoleNone {
				continue
			}
			values, ok := r.PostForm[f.Identifier]
			if !ok || len(values) == 0 {
				continue
			}
			var answer any = values[0]
			if f.Type == model.PickMulti {
				answer = values
			}
			if err := ts.SetAnswer(f.Identifier, answer); err != nil {
				log.Debugf("submit_survey: drop answer for %q: %s", f.Identifier, err)
			}
		}

		ip := remoteIP(r)
		// check ip is not submitting now
		validateIpDone := make(chan bool)
		validateIpStart <- IpCheck{true, ip, validateIpDone}
		if <-validateIpDone {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "ip.already_submitted")
			return
		}
		defer func() { validateIpStart <- IpCheck{false, ip, nil} }()
		// check ip did not already submit
		var alreadySubmitted bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM submission
			WHERE survey_id = ?
				AND ip = ?`,
			surveyId,
			ip,
		).Scan(&alreadySubmitted)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			httpx.LogInternalError(w, "db.get_ip.scan", err)
			return
		}
		if alreadySubmitted {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "ip.already_submitted")
			return
		}

		var submissionId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO submission (survey_id, time, ip, role) VALUES (?, ?, ?, ?)
			RETURNING id`,
			surveyId,
			time.Now(),
			ip,
			meta.Role,
		).Scan(&submissionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO submission_field (submission_id, identifier, value)
			VALUES (?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission.fields.prepare", err)
			return
		}
		defer stmt.Close()

		for identifier, value := range ts.Submit() {
			valueJson, err := json.Marshal(value)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_submission.fields.parse_value", err)
				return
			}
			_, err = stmt.ExecContext(r.Context(), submissionId, identifier, string(valueJson))
			if err != nil {
				httpx.LogInternalError(w, "db.insert_submission.fields.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission.commit", err)
			return
		}

		// write response
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": submissionId,
		})
	}
}

func remoteIP(r *http.Request) string {
	return strings.Split(r.RemoteAddr, ":")[0]
}
