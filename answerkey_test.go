package homeworkgen

import "testing"

func TestChoiceKey(t *testing.T) {
	tests := []struct {
		choice string
		key    string
		ok     bool
	}{
		{"A) Paris", "A", true},
		{"b) Lyon", "b", true},
		{"Paris", "", false},
		{"1) Paris", "", false},
		{"A Paris", "", false},
		{"", "", false},
		{"A", "", false},
	}

	for _, tc := range tests {
		key, ok := ChoiceKey(tc.choice)
		if key != tc.key || ok != tc.ok {
			t.Errorf("ChoiceKey(%q) = %q, %v; want %q, %v", tc.choice, key, ok, tc.key, tc.ok)
		}
	}
}

func TestChoiceBody(t *testing.T) {
	tests := []struct {
		choice string
		want   string
	}{
		{"A) Paris", "Paris"},
		{"B)Lyon", "Lyon"},
		{"Paris", "Paris"},
	}

	for _, tc := range tests {
		if got := ChoiceBody(tc.choice); got != tc.want {
			t.Errorf("ChoiceBody(%q) = %q, want %q", tc.choice, got, tc.want)
		}
	}
}

func TestCorrectChoice(t *testing.T) {
	tests := []struct {
		name    string
		choices []string
		answer  string
		want    int
	}{
		// Scenario C: case-insensitive letter match.
		{"lowercase answer letter", []string{"A) Paris", "B) Lyon"}, "a", 0},
		{"uppercase answer letter", []string{"a) Paris", "b) Lyon"}, "B", 1},
		{"text equality without prefix", []string{"Paris", "Lyon"}, "lyon", 1},
		{"first match wins on duplicate keys", []string{"A) Paris", "A) Marseille"}, "a", 0},
		{"prefixed choice not matched by text", []string{"A) Paris", "B) Lyon"}, "B) Lyon", -1},
		{"no match", []string{"A) Paris", "B) Lyon"}, "C", -1},
		{"empty answer", []string{"A) Paris"}, "", -1},
		{"no choices", nil, "A", -1},
		{"mixed prefixed and bare", []string{"Paris", "B) Lyon"}, "paris", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CorrectChoice(tc.choices, tc.answer); got != tc.want {
				t.Errorf("CorrectChoice(%v, %q) = %d, want %d", tc.choices, tc.answer, got, tc.want)
			}
		})
	}
}

func TestChoiceLetter(t *testing.T) {
	tests := []struct {
		choice string
		index  int
		want   string
	}{
		{"A) Paris", 0, "A"},
		{"c) Nice", 2, "C"},
		{"Paris", 0, "A"},
		{"Lyon", 1, "B"},
	}

	for _, tc := range tests {
		if got := ChoiceLetter(tc.choice, tc.index); got != tc.want {
			t.Errorf("ChoiceLetter(%q, %d) = %q, want %q", tc.choice, tc.index, got, tc.want)
		}
	}
}
