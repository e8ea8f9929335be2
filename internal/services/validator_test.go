package services

import (
	"strings"
	"testing"
)

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reason string // empty means accepted
	}{
		{"empty string", "", ReasonEmpty},
		{"whitespace only", "   \n\t  ", ReasonEmpty},
		{"too short", "hey", ReasonTooShort},
		{"short after trim", "  hi  ", ReasonTooShort},
		{"four runes", "abcd", ReasonTooShort},
		{"trivial greeting", "hello", ReasonTrivial},
		{"trivial uppercase", "HELLO", ReasonTrivial},
		{"repeated unit", "abcabcabc", ReasonGibberish},
		{"two distinct letters", "ababababab", ReasonGibberish},
		{"keyboard row", "asdfghjkl", ReasonGibberish},
		{"keyboard row with digits", "asdf1234", ReasonGibberish},
		{"no vowels", "bcdfghjk", ReasonGibberish},
		{"long letter run", "loooooooong", ReasonGibberish},
		{"normal question", "What is the capital of France?", ""},
		{"normal sentence", "hello there, how are you today", ""},
		{"question with numbers", "how much is 2 plus 2 again", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePrompt(tt.text, 4000)
			if tt.reason == "" {
				if !got.OK {
					t.Errorf("ValidatePrompt(%q) rejected with %q, expected accept", tt.text, got.Reason)
				}
				return
			}
			if got.OK {
				t.Errorf("ValidatePrompt(%q) accepted, expected reason %q", tt.text, tt.reason)
				return
			}
			if got.Reason != tt.reason {
				t.Errorf("ValidatePrompt(%q) reason = %q, expected %q", tt.text, got.Reason, tt.reason)
			}
		})
	}
}

func TestValidatePrompt_TooLong(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("hello there how are you ", 10))

	got := ValidatePrompt(text, 100)
	if got.OK || got.Reason != ReasonTooLong {
		t.Errorf("ValidatePrompt long text = %+v, expected reason %q", got, ReasonTooLong)
	}

	// Same text fits a larger bound.
	if got := ValidatePrompt(text, 4000); !got.OK {
		t.Errorf("ValidatePrompt within bound rejected with %q", got.Reason)
	}
}

// The keyboard-row check scans the raw lowercased text, so a mash embedded
// in an otherwise normal sentence is still caught.
func TestValidatePrompt_KeyboardRowInSentence(t *testing.T) {
	got := ValidatePrompt("please explain qwerty keyboards", 4000)
	if got.OK || got.Reason != ReasonGibberish {
		t.Errorf("embedded row fragment = %+v, expected gibberish", got)
	}

	// Reversed row fragments count too, including the digit row.
	got = ValidatePrompt("9876 stories tall", 4000)
	if got.OK || got.Reason != ReasonGibberish {
		t.Errorf("reversed digit row = %+v, expected gibberish", got)
	}
}

// Fewer than four letters is too little signal for the gibberish
// heuristics, even when the text itself is a keyboard row.
func TestValidatePrompt_FewLettersNeverGibberish(t *testing.T) {
	for _, text := range []string{"12345", "a1 b2 c3", "ok 12345?"} {
		if got := ValidatePrompt(text, 4000); !got.OK {
			t.Errorf("ValidatePrompt(%q) rejected with %q, expected accept", text, got.Reason)
		}
	}
}

func TestHasRepeatingUnit(t *testing.T) {
	tests := []struct {
		letters  string
		expected bool
	}{
		{"asdasdasd", true},
		{"abababab", true},
		{"aaaa", true},
		{"abcdabcd", false}, // only two repetitions
		{"abcabcabd", false},
		{"hello", false},
	}

	for _, tt := range tests {
		if got := hasRepeatingUnit([]byte(tt.letters)); got != tt.expected {
			t.Errorf("hasRepeatingUnit(%q) = %v, expected %v", tt.letters, got, tt.expected)
		}
	}
}
