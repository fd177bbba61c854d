package wizard

import (
	"testing"

	"github.com/formflow/formflow/model"
)

func fptr(f float64) *float64 { return &f }

func TestValidateField_required(t *testing.T) {
	f := model.Field{ID: "name", Type: model.FieldText, Label: "Name", Required: true}

	for _, answer := range []any{nil, "", []string{}, []any{}} {
		if err := ValidateField(f, answer); err == nil {
			t.Errorf("required field with answer %#v should fail", answer)
		}
	}
	if err := ValidateField(f, "Ana"); err != nil {
		t.Errorf("populated required field should pass, got %v", err)
	}
}

func TestValidateField_optionalEmpty(t *testing.T) {
	f := model.Field{ID: "age", Type: model.FieldNumber, Label: "Age",
		Validation: &model.Validation{Min: fptr(18)}}

	if err := ValidateField(f, nil); err != nil {
		t.Errorf("empty optional field should skip range checks, got %v", err)
	}
}

func TestValidateField_minMax(t *testing.T) {
	f := model.Field{ID: "age", Type: model.FieldNumber, Label: "Age",
		Validation: &model.Validation{Min: fptr(18), Max: fptr(99)}}

	if err := ValidateField(f, "17"); err == nil {
		t.Error("value below min should fail")
	}
	if err := ValidateField(f, "120"); err == nil {
		t.Error("value above max should fail")
	}
	if err := ValidateField(f, "42"); err != nil {
		t.Errorf("value in range should pass, got %v", err)
	}
	// a non-numeric answer cannot violate a numeric bound
	if err := ValidateField(f, "abc"); err != nil {
		t.Errorf("non-numeric answer should skip range checks, got %v", err)
	}
}

func TestValidateField_pattern(t *testing.T) {
	f := model.Field{ID: "mail", Type: model.FieldEmail, Label: "Email",
		Validation: &model.Validation{Pattern: `^[^@]+@[^@]+$`}}

	if err := ValidateField(f, "not-an-email"); err == nil {
		t.Error("pattern mismatch should fail")
	}
	if err := ValidateField(f, "ana@example.com"); err != nil {
		t.Errorf("matching answer should pass, got %v", err)
	}

	broken := model.Field{ID: "x", Type: model.FieldText, Label: "X",
		Validation: &model.Validation{Pattern: `([`}}
	if err := ValidateField(broken, "anything"); err != nil {
		t.Errorf("an uncompilable pattern should be skipped, got %v", err)
	}
}

func TestValidateAll_invisibleRequiredDoesNotBlock(t *testing.T) {
	steps := []model.Step{{
		ID: "s1", Title: "Step 1", Fields: []model.Field{
			{ID: "pref", Type: model.FieldSelect, Label: "Contact", Required: true, Options: []string{"email", "none"}},
			{ID: "mail", Type: model.FieldEmail, Label: "Email", Required: true,
				Conditions: []model.Condition{{FieldID: "pref", Operator: model.OpEquals, Value: "email"}}},
		},
	}}

	// mail is hidden, so its required flag must not block
	errs := ValidateAll(steps, model.AnswerSet{"pref": "none"})
	if len(errs) != 0 {
		t.Errorf("hidden required field should not fail validation, got %v", errs)
	}

	// once visible, it does
	errs = ValidateAll(steps, model.AnswerSet{"pref": "email"})
	if len(errs) != 1 || errs[0].FieldID != "mail" {
		t.Errorf("visible required field should fail validation, got %v", errs)
	}
}
