// Command formflow-fill runs a form's wizard in the terminal: it fetches
// the definition, walks the steps with conditional visibility and jumps
// applied, and submits the answers to the collection endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/formflow/formflow/log"
	"github.com/formflow/formflow/model"
	"github.com/formflow/formflow/transport"
	"github.com/formflow/formflow/wizard"
)

func main() {
	var server, formId string
	flag.StringVar(&server, "server", "http://localhost:8080", "formflow server base URL")
	flag.StringVar(&formId, "form", "", "id of the form to fill")
	flag.Parse()

	if formId == "" {
		log.Fatal("missing parameter -form")
	}

	ctx := context.Background()
	client := transport.NewClient(server)

	form, err := client.FetchForm(ctx, formId)
	if err != nil {
		log.Fatal("fill.fetch_form:", err)
	}

	wiz, err := wizard.New(form, client)
	if err != nil {
		log.Fatal("fill.new_wizard:", err)
	}

	fmt.Println(form.Title)
	if form.Description != "" {
		fmt.Println(form.Description)
	}

	for {
		step := wiz.Step()
		fmt.Printf("\n-- %s (step %d of %d) --\n", step.Title, wiz.StepIndex()+1, wiz.StepCount())

		// visibility is re-evaluated after every answer: a field answered
		// earlier in the step may reveal or hide the ones after it
		asked := map[string]bool{}
		for {
			field, ok := nextField(wiz.VisibleFields(), asked)
			if !ok {
				break
			}
			asked[field.ID] = true

			value, err := ask(field)
			if err != nil {
				log.Fatal("fill.prompt:", err)
			}
			if err = wiz.SetAnswer(field.ID, value); err != nil {
				log.Fatal("fill.answer:", err)
			}
		}

		err = wiz.Next()
		if errors.Is(err, wizard.ErrLastStep) {
			break
		}
		if err != nil {
			log.Fatal("fill.next:", err)
		}
	}

	result, err := wiz.Submit(ctx)
	var verrs wizard.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			fmt.Println(" !", e.Error())
		}
		log.Fatal("fill.submit: form is incomplete")
	}
	if err != nil {
		log.Fatal("fill.submit:", err)
	}

	fmt.Printf("\nThank you! Submission id: %s\n", result.SubmissionID)
}

func nextField(fields []model.Field, asked map[string]bool) (model.Field, bool) {
	for _, f := range fields {
		if !asked[f.ID] {
			return f, true
		}
	}
	return model.Field{}, false
}

func ask(field model.Field) (any, error) {
	var opts []survey.AskOpt
	if field.Required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}

	switch field.Type {
	case model.FieldSelect, model.FieldRadio:
		var value string
		err := survey.AskOne(&survey.Select{Message: field.Label, Options: field.Options}, &value, opts...)
		return value, err

	case model.FieldCheckbox:
		var values []string
		err := survey.AskOne(&survey.MultiSelect{Message: field.Label, Options: field.Options}, &values, opts...)
		return values, err

	case model.FieldTextarea:
		var value string
		err := survey.AskOne(&survey.Multiline{Message: field.Label}, &value, opts...)
		return value, err

	default:
		// text, email, number, date, file (as a path or URL): free input,
		// validated by the wizard on submit
		var value string
		err := survey.AskOne(&survey.Input{Message: field.Label, Help: field.Placeholder}, &value, opts...)
		return value, err
	}
}
