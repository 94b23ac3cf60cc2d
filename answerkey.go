package homeworkgen

import "strings"

// ChoiceKey extracts the answer-key letter from a choice string. A choice may
// be prefixed with a single-letter label and a closing parenthesis ("A) Paris");
// the letter is the key. Choices without a prefix have no key.
func ChoiceKey(choice string) (string, bool) {
	if len(choice) >= 2 && choice[1] == ')' && isLetter(choice[0]) {
		return choice[:1], true
	}
	return "", false
}

// ChoiceBody returns the choice text with any leading "X)" label and
// following spaces stripped.
func ChoiceBody(choice string) string {
	if _, ok := ChoiceKey(choice); ok {
		return strings.TrimLeft(choice[2:], " ")
	}
	return choice
}

// CorrectChoice returns the index of the choice matching answer, or -1.
// A choice matches if its key letter equals the answer (case-insensitive), or,
// when it has no key, if its full text equals the answer (case-insensitive).
// The first match in sequence order wins.
func CorrectChoice(choices []string, answer string) int {
	if answer == "" {
		return -1
	}
	for i, choice := range choices {
		if key, ok := ChoiceKey(choice); ok {
			if strings.EqualFold(key, answer) {
				return i
			}
			continue
		}
		if strings.EqualFold(choice, answer) {
			return i
		}
	}
	return -1
}

// ChoiceLetter returns the label letter for the choice at index i: the "X)"
// prefix when present, positional (A, B, C, ...) otherwise.
func ChoiceLetter(choice string, i int) string {
	if key, ok := ChoiceKey(choice); ok {
		return strings.ToUpper(key)
	}
	return string(rune('A' + i))
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
