// CLAUDE:SUMMARY Registration code recognition: 7-digit AMM pattern, extraction from noisy label text, OCR lookalike repair.
package phyto

import (
	"regexp"
	"strings"
)

// CodeLength is the length of a registration (AMM) number.
const CodeLength = 7

var (
	codePattern   = regexp.MustCompile(`^[0-9]{7}$`)
	codeInText    = regexp.MustCompile(`(?:^|[^0-9])([0-9]{7})(?:[^0-9]|$)`)
	codeCandidate = regexp.MustCompile(`[0-9OoIlZSBg]{7}`)
)

// ocrDigits maps characters that label OCR commonly confuses with digits.
var ocrDigits = map[byte]byte{
	'O': '0', 'o': '0',
	'I': '1', 'l': '1',
	'Z': '2',
	'S': '5',
	'B': '8',
	'g': '9',
}

// IsCode reports whether s is a well-formed registration code.
func IsCode(s string) bool {
	return codePattern.MatchString(s)
}

// ExtractCode finds a registration code inside free text such as
// "N° AMM : 2150918". When no clean 7-digit run exists it tries 7-character
// tokens made of digits and OCR lookalikes, provided at least five are real digits.
func ExtractCode(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if m := codeInText.FindStringSubmatch(text); m != nil {
		return m[1], true
	}

	for _, field := range strings.FieldsFunc(text, isCodeSeparator) {
		if len(field) != CodeLength || !codeCandidate.MatchString(field) {
			continue
		}
		digits := 0
		repaired := []byte(field)
		for i := 0; i < len(repaired); i++ {
			c := repaired[i]
			if c >= '0' && c <= '9' {
				digits++
				continue
			}
			repaired[i] = ocrDigits[c]
		}
		if digits >= CodeLength-2 {
			return string(repaired), true
		}
	}
	return "", false
}

func isCodeSeparator(r rune) bool {
	return r == ' ' || r == ':' || r == '\t' || r == '\n' || r == ',' || r == ';' || r == '.' || r == '/' || r == '°'
}
