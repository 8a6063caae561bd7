package textproc

import (
	"strings"
	"testing"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"tabs and runs", "a\t\tb   c", "a b c"},
		{"bullets", "•  Go\n● Python\n▪Rust", "- Go\n- Python\n- Rust"},
		{"blank collapse", "a\n\n\n\n\nb", "a\n\nb"},
		{"trailing spaces", "a   \nb  ", "a\nb"},
		{"surrounding space", "  resume text  ", "resume text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Fatalf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	inputs := []string{
		"EXPERIENCE\r\n\r\n•\tBuilt services   \n \n \nEDUCATION\n",
		"a\n \n \nb",
		strings.Repeat("word ", 50) + "\n\n\n• bullet",
	}
	for _, in := range inputs {
		once := Preprocess(in)
		twice := Preprocess(once)
		if once != twice {
			t.Fatalf("Preprocess not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}

func TestPreprocessKeepsPipes(t *testing.T) {
	in := "Go | Python | Rust"
	if got := Preprocess(in); got != in {
		t.Fatalf("Preprocess(%q) = %q, pipes must survive", in, got)
	}
}
