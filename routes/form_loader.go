package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/formflow/formflow/app"
	"github.com/formflow/formflow/model"
)

var errFormNotFound = errors.New("form not found")

// loadForm reads one form with its steps and fields, in declared order.
// Returns errFormNotFound when the id does not exist.
func loadForm(ctx context.Context, app app.App, formId string) (*model.Form, error) {
	form := model.Form{}
	var theme, settings string
	err := app.QueryRowContext(ctx, `
		SELECT id, version, title, description, theme, settings, owner, created_at, updated_at
		FROM form
		WHERE id = ?`,
		formId,
	).Scan(
		&form.ID, &form.Version, &form.Title, &form.Description,
		&theme, &settings, &form.Owner, &form.CreatedAt, &form.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errFormNotFound
	}
	if err != nil {
		return nil, err
	}

	if theme != "" {
		if err = json.Unmarshal([]byte(theme), &form.Theme); err != nil {
			return nil, err
		}
	}
	if settings != "" {
		if err = json.Unmarshal([]byte(settings), &form.Settings); err != nil {
			return nil, err
		}
	}

	rows, err := app.QueryContext(ctx, `
		SELECT
			st.id, st.title, st.step_order,
			f.id, f.type, f.label, f.placeholder, f.required,
			f.options, f.validation, f.conditions
		FROM step st
		LEFT OUTER JOIN field f ON (st.id = f.step_id)
		WHERE st.form_id = ?
		ORDER BY st.step_order, f.field_order`,
		formId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var stepId, stepTitle string
		var stepOrder int
		var fId, fType, fLabel, fPlaceholder, fOptions, fValidation, fConditions sql.NullString
		var fRequired sql.NullBool

		err = rows.Scan(
			&stepId, &stepTitle, &stepOrder,
			&fId, &fType, &fLabel, &fPlaceholder, &fRequired,
			&fOptions, &fValidation, &fConditions,
		)
		if err != nil {
			return nil, err
		}

		last := len(form.Steps) - 1
		if last < 0 || form.Steps[last].ID != stepId {
			form.Steps = append(form.Steps, model.Step{
				ID:     stepId,
				FormID: form.ID,
				Title:  stepTitle,
				Order:  stepOrder,
				Fields: []model.Field{},
			})
			last++
		}

		if !fId.Valid {
			// step without fields
			continue
		}

		f := model.Field{
			ID:          fId.String,
			StepID:      stepId,
			Type:        model.FieldType(fType.String),
			Label:       fLabel.String,
			Placeholder: fPlaceholder.String,
			Required:    fRequired.Bool,
		}
		if fOptions.String != "" {
			if err = json.Unmarshal([]byte(fOptions.String), &f.Options); err != nil {
				return nil, err
			}
		}
		if fValidation.String != "" {
			if err = json.Unmarshal([]byte(fValidation.String), &f.Validation); err != nil {
				return nil, err
			}
		}
		if fConditions.String != "" {
			if err = json.Unmarshal([]byte(fConditions.String), &f.Conditions); err != nil {
				return nil, err
			}
		}
		form.Steps[last].Fields = append(form.Steps[last].Fields, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return &form, nil
}
