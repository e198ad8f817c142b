package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Garcia wedding", want: "Garcia wedding"},
		{name: "tags", in: "<b>Gala</b> dinner", want: "Gala dinner"},
		{name: "encoded tags", in: "&lt;script&gt;alert(1)&lt;/script&gt;Menu", want: "alert(1)Menu"},
		{name: "spaces", in: "  Open   bar \t service ", want: "Open bar service"},
		{name: "ampersand", in: "Sound &amp; lights", want: "Sound & lights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Fatalf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
	blank := "<p> </p>"
	if TextPtr(&blank) != nil {
		t.Fatalf("expected nil for input that is empty after sanitizing")
	}
	desc := "Dinner for <i>120</i> guests"
	if got := TextPtr(&desc); got == nil || *got != "Dinner for 120 guests" {
		t.Fatalf("unexpected result %v", got)
	}
}
