package model

import "time"

// Field types a form may declare. The renderer and the validator both
// dispatch on these; anything else is rejected at form creation time.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
	FieldDate     FieldType = "date"
)

var fieldTypes = map[FieldType]bool{
	FieldText:     true,
	FieldEmail:    true,
	FieldNumber:   true,
	FieldTextarea: true,
	FieldSelect:   true,
	FieldRadio:    true,
	FieldCheckbox: true,
	FieldFile:     true,
	FieldDate:     true,
}

func (t FieldType) Valid() bool {
	return fieldTypes[t]
}

// Condition operators.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// Condition actions.
type Action string

const (
	ActionShow       Action = "show"
	ActionHide       Action = "hide"
	ActionJumpToStep Action = "jump_to_step"
)

type Form struct {
	ID          string       `json:"id,omitempty"`
	Version     int          `json:"version,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Theme       *Theme       `json:"theme,omitempty"`
	Settings    FormSettings `json:"settings"`
	Owner       string       `json:"owner,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at,omitempty"`
	Steps       []Step       `json:"steps,omitempty"`
}

type Step struct {
	ID     string  `json:"id,omitempty"`
	FormID string  `json:"form_id,omitempty"`
	Title  string  `json:"title"`
	Order  int     `json:"order"`
	Fields []Field `json:"fields"`
}

type Field struct {
	ID          string      `json:"id,omitempty"`
	StepID      string      `json:"step_id,omitempty"`
	Type        FieldType   `json:"type"`
	Label       string      `json:"label"`
	Placeholder string      `json:"placeholder,omitempty"`
	Required    bool        `json:"required"`
	Options     []string    `json:"options,omitempty"`
	Validation  *Validation `json:"validation,omitempty"`
	Conditions  []Condition `json:"conditions,omitempty"`
}

// Condition gates a field on another field's answer. All conditions on a
// field are combined with logical AND. Target names a step and is only
// meaningful for jump_to_step.
type Condition struct {
	FieldID  string   `json:"field_id"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
	Action   Action   `json:"action,omitempty"`
	Target   string   `json:"target,omitempty"`
}

type Validation struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Custom  string   `json:"custom,omitempty"`
}

type Theme struct {
	PrimaryColor    string `json:"primary_color"`
	SecondaryColor  string `json:"secondary_color"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
	FontFamily      string `json:"font_family"`
	LogoURL         string `json:"logo_url,omitempty"`
}

type FormSettings struct {
	AllowMultipleSubmissions bool   `json:"allow_multiple_submissions"`
	ShowProgressBar          bool   `json:"show_progress_bar"`
	AutoSave                 bool   `json:"auto_save"`
	RedirectURL              string `json:"redirect_url,omitempty"`
}

// AnswerSet maps field id to the answer value. The value shape depends on
// the field type: string for most types, []string (or []any after a JSON
// round trip) for checkbox, a stored file URL for file.
type AnswerSet map[string]any

type Metadata struct {
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	Timestamp time.Time `json:"timestamp"`
}

type Submission struct {
	ID        string    `json:"id"`
	FormID    string    `json:"form_id"`
	Answers   AnswerSet `json:"answers"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
