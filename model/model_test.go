package model

import (
	"encoding/json"
	"testing"
)

func TestFieldTypeValid(t *testing.T) {
	for _, ft := range []FieldType{FieldText, FieldEmail, FieldNumber, FieldTextarea,
		FieldSelect, FieldRadio, FieldCheckbox, FieldFile, FieldDate} {
		if !ft.Valid() {
			t.Errorf("%q should be a valid field type", ft)
		}
	}
	if FieldType("slider").Valid() {
		t.Error("unknown field type should not be valid")
	}
	if FieldType("").Valid() {
		t.Error("empty field type should not be valid")
	}
}

func TestConditionJSON(t *testing.T) {
	raw := `{"field_id": "service_rating", "operator": "equals", "value": "Zeer ontevreden", "action": "hide"}`

	cond := Condition{}
	if err := json.Unmarshal([]byte(raw), &cond); err != nil {
		t.Fatal(err)
	}
	if cond.Operator != OpEquals || cond.Action != ActionHide {
		t.Errorf("unexpected condition: %+v", cond)
	}
	if cond.Value != "Zeer ontevreden" {
		t.Errorf("value = %v", cond.Value)
	}
}
