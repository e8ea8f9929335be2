package services

import (
	"strings"
	"unicode/utf8"
)

// Validation reason codes, also recorded as error_code on rejected requests.
const (
	ReasonEmpty     = "empty"
	ReasonTooShort  = "too_short"
	ReasonTrivial   = "trivial"
	ReasonGibberish = "gibberish"
	ReasonTooLong   = "too_long"
)

// ValidationOutcome is the result of validating one prompt. Reason is empty
// when OK is true.
type ValidationOutcome struct {
	OK     bool
	Reason string
}

// trivialStrings are throwaway greetings answered without burning tokens.
var trivialStrings = map[string]struct{}{
	"hi":    {},
	"hello": {},
	"test":  {},
	"ping":  {},
}

// keyboardRows feed the mash detector: any 4-gram from one of these rows,
// forward or reversed, marks the text as keyboard smash.
var keyboardRows = [...]string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"1234567890",
}

// ValidatePrompt runs the ordered admission checks on one prompt. Pure
// function, first failing check wins. maxChars bounds the trimmed length.
func ValidatePrompt(text string, maxChars int) ValidationOutcome {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return ValidationOutcome{Reason: ReasonEmpty}
	}
	if utf8.RuneCountInString(cleaned) < 5 {
		return ValidationOutcome{Reason: ReasonTooShort}
	}
	if _, ok := trivialStrings[strings.ToLower(cleaned)]; ok {
		return ValidationOutcome{Reason: ReasonTrivial}
	}
	if looksGibberish(cleaned) {
		return ValidationOutcome{Reason: ReasonGibberish}
	}
	if utf8.RuneCountInString(cleaned) > maxChars {
		return ValidationOutcome{Reason: ReasonTooLong}
	}
	return ValidationOutcome{OK: true}
}

// looksGibberish applies a set of independent heuristics; any single match
// flags the text. All but the keyboard-row check operate on the lowercase
// a-z subsequence; the keyboard-row check deliberately scans the raw
// lowercased text so mashes spanning digits or punctuation are still caught.
func looksGibberish(text string) bool {
	lower := strings.ToLower(text)

	var letters []byte
	for i := 0; i < len(lower); i++ {
		if lower[i] >= 'a' && lower[i] <= 'z' {
			letters = append(letters, lower[i])
		}
	}
	// Too little signal to judge.
	if len(letters) < 4 {
		return false
	}

	distinct := map[byte]struct{}{}
	for _, ch := range letters {
		distinct[ch] = struct{}{}
	}
	if len(distinct) <= 2 && len(letters) >= 6 {
		return true
	}

	if hasRepeatingUnit(letters) {
		return true
	}

	for _, row := range keyboardRows {
		for i := 0; i+4 <= len(row); i++ {
			gram := row[i : i+4]
			if strings.Contains(lower, gram) || strings.Contains(lower, reverseASCII(gram)) {
				return true
			}
		}
	}

	if len(letters) >= 6 {
		vowelCount := 0
		for _, ch := range letters {
			switch ch {
			case 'a', 'e', 'i', 'o', 'u':
				vowelCount++
			}
		}
		if vowelCount == 0 {
			return true
		}
		consonants := len(letters) - vowelCount
		if float64(consonants)/float64(len(letters)) > 0.85 {
			return true
		}
	}

	maxRun, run := 1, 1
	for i := 1; i < len(letters); i++ {
		if letters[i] == letters[i-1] {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 1
		}
	}
	return maxRun > 4
}

// hasRepeatingUnit reports whether the letter sequence is exactly a 1-4
// character unit tiled three or more times, e.g. "asdasdasd".
func hasRepeatingUnit(letters []byte) bool {
	n := len(letters)
	for unit := 1; unit <= 4; unit++ {
		if n%unit != 0 || n/unit < 3 {
			continue
		}
		tiled := true
		for i := unit; i < n; i++ {
			if letters[i] != letters[i-unit] {
				tiled = false
				break
			}
		}
		if tiled {
			return true
		}
	}
	return false
}

func reverseASCII(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
