package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ezza-forms/backend/app"
	"github.com/ezza-forms/backend/httpx"
	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validateFormTree(form); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "form.validate", err.Error())
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var formId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO forms (title, description, created_by) VALUES (?, ?, ?)
			RETURNING id`,
			form.Title,
			form.Description,
			form.CreatedBy,
		).Scan(&formId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		for pos, section := range form.Sections {
			sectionId, err := insertSection(r.Context(), tx, formId, pos, section)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_form.sections", err)
				return
			}
			for fpos, field := range section.Fields {
				fieldId, err := insertField(r.Context(), tx, sectionId, fpos, field)
				if err != nil {
					httpx.LogInternalError(w, "db.insert_form.fields", err)
					return
				}
				if err := insertFieldChildren(r.Context(), tx, fieldId, field); err != nil {
					httpx.LogInternalError(w, "db.insert_form.field_children", err)
					return
				}
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"formId": formId,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, title, description, created_by, created_at
			FROM forms
			ORDER BY id`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.Form{}
		for rows.Next() {
			f := model.Form{}
			err = rows.Scan(&f.ID, &f.Title, &f.Description, &f.CreatedBy, &f.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}
			forms = append(forms, f)
		}

		render.JSON(w, r, forms)
	}
}

func GetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := loadForm(r.Context(), app, formId)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpx.LogNotFound(w, "get_form", formId)
			return
		case err != nil:
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

// updateFormRequest carries the submitted tree plus the tombstone lists of
// rows the client removed. Rows not listed and not resubmitted are left
// untouched.
type updateFormRequest struct {
	model.Form
	SectionsToDelete           []int `json:"sectionsToDelete"`
	FieldsToDelete             []int `json:"fieldsToDelete"`
	OptionsToDelete            []int `json:"optionsToDelete"`
	ConditionalOptionsToDelete []int `json:"conditionalOptionsToDelete"`
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req := updateFormRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := validateFormTree(req.Form); err != nil {
			httpx.LogMessage(w, r, http.StatusBadRequest, log.DebugLevel, "form.validate", err.Error())
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		res, err := tx.ExecContext(r.Context(), `
			UPDATE forms SET title = ?, description = ? WHERE id = ?`,
			req.Title,
			req.Description,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_form", formId)
			return
		}

		if err := deleteTombstones(r.Context(), tx, formId, req); err != nil {
			httpx.LogInternalError(w, "db.update_form.deletes", err)
			return
		}

		for pos, section := range req.Sections {
			sectionId, err := upsertSection(r.Context(), tx, formId, pos, section)
			if err != nil {
				httpx.LogInternalError(w, "db.update_form.sections", err)
				return
			}
			for fpos, field := range section.Fields {
				fieldId, err := upsertField(r.Context(), tx, formId, sectionId, fpos, field)
				if err != nil {
					httpx.LogInternalError(w, "db.update_form.fields", err)
					return
				}
				// options and inputs are value rows: replace wholesale
				_, err = tx.ExecContext(r.Context(), `DELETE FROM field_options WHERE field_id = ?`, fieldId)
				if err != nil {
					httpx.LogInternalError(w, "db.update_form.options.clear", err)
					return
				}
				if err := insertFieldChildren(r.Context(), tx, fieldId, field); err != nil {
					httpx.LogInternalError(w, "db.update_form.field_children", err)
					return
				}
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.commit", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Form updated",
		})
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		res, err := app.ExecContext(r.Context(), `DELETE FROM forms WHERE id = ?`, formId)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_form", formId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func validateFormTree(form model.Form) error {
	if strings.TrimSpace(form.Title) == "" {
		return errors.New("title is required")
	}
	for _, section := range form.Sections {
		for _, field := range section.Fields {
			if !field.Type.Valid() {
				return fmt.Errorf("unknown field type %q", field.Type)
			}
		}
	}
	return nil
}

func insertSection(ctx context.Context, tx *sql.Tx, formId, pos int, section model.Section) (sectionId int, err error) {
	err = tx.QueryRowContext(ctx, `
		INSERT INTO sections (form_id, position, title) VALUES (?, ?, ?)
		RETURNING id`,
		formId,
		pos,
		section.Title,
	).Scan(&sectionId)
	return
}

func insertField(ctx context.Context, tx *sql.Tx, sectionId, pos int, field model.Field) (fieldId int, err error) {
	err = tx.QueryRowContext(ctx, `
		INSERT INTO fields (section_id, position, type, label, required, show_other_option)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		sectionId,
		pos,
		field.Type,
		field.Label,
		field.Required,
		field.ShowOtherOption,
	).Scan(&fieldId)
	return
}

// insertFieldChildren inserts a field's options and conditional options with
// their nested inputs.
func insertFieldChildren(ctx context.Context, tx *sql.Tx, fieldId int, field model.Field) error {
	for pos, option := range field.Options {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO field_options (field_id, position, option_text) VALUES (?, ?, ?)`,
			fieldId,
			pos,
			option,
		)
		if err != nil {
			return err
		}
	}

	for pos, condOpt := range field.ConditionalOptions {
		condOptId, err := upsertConditionalOption(ctx, tx, fieldId, pos, condOpt)
		if err != nil {
			return err
		}
		if err := replaceConditionalInputs(ctx, tx, condOptId, condOpt.Inputs); err != nil {
			return err
		}
	}
	return nil
}

func upsertSection(ctx context.Context, tx *sql.Tx, formId, pos int, section model.Section) (int, error) {
	if section.ID > 0 {
		res, err := tx.ExecContext(ctx, `
			UPDATE sections SET title = ?, position = ? WHERE id = ? AND form_id = ?`,
			section.Title,
			pos,
			section.ID,
			formId,
		)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return 0, err
		} else if n > 0 {
			return section.ID, nil
		}
	}
	return insertSection(ctx, tx, formId, pos, section)
}

func upsertField(ctx context.Context, tx *sql.Tx, formId, sectionId, pos int, field model.Field) (int, error) {
	if field.ID > 0 {
		res, err := tx.ExecContext(ctx, `
			UPDATE fields
			SET section_id = ?, position = ?, type = ?, label = ?, required = ?, show_other_option = ?
			WHERE id = ?
				AND section_id IN (SELECT id FROM sections WHERE form_id = ?)`,
			sectionId,
			pos,
			field.Type,
			field.Label,
			field.Required,
			field.ShowOtherOption,
			field.ID,
			formId,
		)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return 0, err
		} else if n > 0 {
			return field.ID, nil
		}
	}
	return insertField(ctx, tx, sectionId, pos, field)
}

func upsertConditionalOption(ctx context.Context, tx *sql.Tx, fieldId, pos int, condOpt model.ConditionalOption) (int, error) {
	var radioOptions string
	if len(condOpt.RadioOptions) > 0 {
		encoded, err := json.Marshal(condOpt.RadioOptions)
		if err != nil {
			return 0, err
		}
		radioOptions = string(encoded)
	}

	if condOpt.ID > 0 {
		res, err := tx.ExecContext(ctx, `
			UPDATE conditional_options
			SET position = ?, option_text = ?, radio_question = ?, radio_options = ?
			WHERE id = ? AND field_id = ?`,
			pos,
			condOpt.OptionText,
			condOpt.RadioQuestion,
			radioOptions,
			condOpt.ID,
			fieldId,
		)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return 0, err
		} else if n > 0 {
			return condOpt.ID, nil
		}
	}

	var condOptId int
	err := tx.QueryRowContext(ctx, `
		INSERT INTO conditional_options (field_id, position, option_text, radio_question, radio_options)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		fieldId,
		pos,
		condOpt.OptionText,
		condOpt.RadioQuestion,
		radioOptions,
	).Scan(&condOptId)
	return condOptId, err
}

func replaceConditionalInputs(ctx context.Context, tx *sql.Tx, condOptId int, inputs []model.ConditionalInput) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM conditional_inputs WHERE conditional_option_id = ?`, condOptId)
	if err != nil {
		return err
	}
	for pos, input := range inputs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO conditional_inputs (conditional_option_id, position, label) VALUES (?, ?, ?)`,
			condOptId,
			pos,
			input.Label,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func deleteTombstones(ctx context.Context, tx *sql.Tx, formId int, req updateFormRequest) error {
	deletes := []struct {
		query string
		ids   []int
	}{
		{`DELETE FROM sections WHERE form_id = ? AND id IN (%s)`, req.SectionsToDelete},
		{`DELETE FROM fields
			WHERE section_id IN (SELECT id FROM sections WHERE form_id = ?)
				AND id IN (%s)`, req.FieldsToDelete},
		{`DELETE FROM field_options
			WHERE field_id IN (
				SELECT f.id FROM fields f
				JOIN sections s ON (f.section_id = s.id)
				WHERE s.form_id = ?)
				AND id IN (%s)`, req.OptionsToDelete},
		{`DELETE FROM conditional_options
			WHERE field_id IN (
				SELECT f.id FROM fields f
				JOIN sections s ON (f.section_id = s.id)
				WHERE s.form_id = ?)
				AND id IN (%s)`, req.ConditionalOptionsToDelete},
	}

	for _, d := range deletes {
		if len(d.ids) == 0 {
			continue
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(d.ids)), ",")
		args := make([]any, 0, len(d.ids)+1)
		args = append(args, formId)
		for _, id := range d.ids {
			args = append(args, id)
		}
		_, err := tx.ExecContext(ctx, fmt.Sprintf(d.query, placeholders), args...)
		if err != nil {
			return err
		}
	}
	return nil
}

// loadForm reads the full nested tree of one form. Returns sql.ErrNoRows
// when the form does not exist.
func loadForm(ctx context.Context, q queryer, formId int) (model.Form, error) {
	form := model.Form{}
	err := q.QueryRowContext(ctx, `
		SELECT id, title, description, created_by, created_at
		FROM forms
		WHERE id = ?`,
		formId,
	).Scan(&form.ID, &form.Title, &form.Description, &form.CreatedBy, &form.CreatedAt)
	if err != nil {
		return form, err
	}

	form.Sections, err = querySections(ctx, q, formId)
	if err != nil {
		return form, err
	}
	for i := range form.Sections {
		section := &form.Sections[i]
		section.Fields, err = queryFields(ctx, q, section.ID)
		if err != nil {
			return form, err
		}
		for j := range section.Fields {
			field := &section.Fields[j]
			field.Options, err = queryFieldOptions(ctx, q, field.ID)
			if err != nil {
				return form, err
			}
			field.ConditionalOptions, err = queryConditionalOptions(ctx, q, field.ID)
			if err != nil {
				return form, err
			}
		}
	}
	return form, nil
}

func querySections(ctx context.Context, q queryer, formId int) ([]model.Section, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title FROM sections WHERE form_id = ? ORDER BY position, id`,
		formId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := []model.Section{}
	for rows.Next() {
		s := model.Section{}
		if err := rows.Scan(&s.ID, &s.Title); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func queryFields(ctx context.Context, q queryer, sectionId int) ([]model.Field, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, type, label, required, show_other_option
		FROM fields
		WHERE section_id = ?
		ORDER BY position, id`,
		sectionId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := []model.Field{}
	for rows.Next() {
		f := model.Field{}
		if err := rows.Scan(&f.ID, &f.Type, &f.Label, &f.Required, &f.ShowOtherOption); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func queryFieldOptions(ctx context.Context, q queryer, fieldId int) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT option_text FROM field_options WHERE field_id = ? ORDER BY position, id`,
		fieldId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		options = append(options, text)
	}
	return options, rows.Err()
}

func queryConditionalOptions(ctx context.Context, q queryer, fieldId int) ([]model.ConditionalOption, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, option_text, radio_question, radio_options
		FROM conditional_options
		WHERE field_id = ?
		ORDER BY position, id`,
		fieldId,
	)
	if err != nil {
		return nil, err
	}

	var condOpts []model.ConditionalOption
	for rows.Next() {
		co := model.ConditionalOption{}
		var radioOptions string
		if err := rows.Scan(&co.ID, &co.OptionText, &co.RadioQuestion, &radioOptions); err != nil {
			rows.Close()
			return nil, err
		}
		if radioOptions != "" {
			if err := json.Unmarshal([]byte(radioOptions), &co.RadioOptions); err != nil {
				rows.Close()
				return nil, err
			}
		}
		condOpts = append(condOpts, co)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range condOpts {
		inputs, err := queryConditionalInputs(ctx, q, condOpts[i].ID)
		if err != nil {
			return nil, err
		}
		condOpts[i].Inputs = inputs
	}
	return condOpts, nil
}

func queryConditionalInputs(ctx context.Context, q queryer, condOptId int) ([]model.ConditionalInput, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT label FROM conditional_inputs WHERE conditional_option_id = ? ORDER BY position, id`,
		condOptId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inputs []model.ConditionalInput
	for rows.Next() {
		input := model.ConditionalInput{}
		if err := rows.Scan(&input.Label); err != nil {
			return nil, err
		}
		inputs = append(inputs, input)
	}
	return inputs, rows.Err()
}
