package email

import (
	"strings"
	"testing"
)

func TestRenderCascadeStepFailed(t *testing.T) {
	subject, body, err := renderCascadeStepFailed(CascadeFailure{
		QuotationID: "q-1",
		RunID:       "run-1",
		Action:      "cancel",
		Step:        "void_payments",
		Error:       "provider <timeout>",
		Attempt:     2,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Quotation q-1: step void_payments failed" {
		t.Fatalf("unexpected subject %q", subject)
	}
	for _, want := range []string{"void_payments", "run-1", "cancel", "provider &lt;timeout&gt;"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
}

func TestNewSenderWithoutSMTPIsNoop(t *testing.T) {
	sender, err := NewSender(disabledSMTP{})
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if _, ok := sender.(NoopSender); !ok {
		t.Fatalf("expected NoopSender, got %T", sender)
	}
}

type disabledSMTP struct{}

func (disabledSMTP) GetSMTPHost() string         { return "" }
func (disabledSMTP) GetSMTPPort() int            { return 0 }
func (disabledSMTP) GetSMTPUsername() string     { return "" }
func (disabledSMTP) GetSMTPPassword() string     { return "" }
func (disabledSMTP) GetEmailFromName() string    { return "" }
func (disabledSMTP) GetEmailFromAddress() string { return "" }
func (disabledSMTP) GetOperatorEmail() string    { return "" }
func (disabledSMTP) IsEmailEnabled() bool        { return false }
