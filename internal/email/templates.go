package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type cascadeStepFailedEmailData struct {
	baseEmailData
	CascadeFailure
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderCascadeStepFailed(failure CascadeFailure) (string, string, error) {
	content, err := renderEmailTemplate("cascade_step_failed.html", cascadeStepFailedEmailData{
		baseEmailData: baseEmailData{
			Title:      "Cascade step failed",
			Heading:    "A quotation cascade step needs attention",
			Subheading: "The step can be retried from the quotation's cascade history.",
		},
		CascadeFailure: failure,
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectCascadeStepFailedFmt, failure.QuotationID, failure.Step), content, nil
}
