package homeworkgen

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeJSON(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test input: %v", err)
	}
	return v
}

func TestFindQuestionsShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "direct questions field",
			raw:  `{"questions": [{"question_text": "Q1"}, {"question_text": "Q2"}]}`,
			want: []string{"Q1", "Q2"},
		},
		{
			name: "bare array",
			raw:  `[{"text": "Q1"}, {"text": "Q2"}]`,
			want: []string{"Q1", "Q2"},
		},
		{
			name: "data wrapper",
			raw:  `{"data": {"questions": [{"question_text": "Q1"}]}}`,
			want: []string{"Q1"},
		},
		{
			name: "result wrapper",
			raw:  `{"result": {"questions": [{"text": "Q1"}]}}`,
			want: []string{"Q1"},
		},
		{
			name: "deeply nested",
			raw:  `{"data": {"result": {"questions": [{"question_text": "Q1"}]}}}`,
			want: []string{"Q1"},
		},
		{
			name: "nested inside array",
			raw:  `{"output": [{"content": {"questions": [{"question_text": "Q1"}]}}]}`,
			want: []string{"Q1"},
		},
		{
			name: "top-level array of wrappers",
			raw:  `[{"content": {"questions": [{"question_text": "Q1"}]}}]`,
			want: []string{"Q1"},
		},
		{
			name: "old and new stem field names",
			raw:  `{"questions": [{"text": "Q1"}, {"question_text": "Q2"}]}`,
			want: []string{"Q1", "Q2"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			questions, _, err := FindQuestions(decodeJSON(t, tc.raw))
			if err != nil {
				t.Fatalf("FindQuestions: %v", err)
			}
			if len(questions) != len(tc.want) {
				t.Fatalf("got %d questions, want %d", len(questions), len(tc.want))
			}
			for i, want := range tc.want {
				if questions[i].Prompt() != want {
					t.Errorf("question %d prompt = %q, want %q", i, questions[i].Prompt(), want)
				}
			}
		})
	}
}

func TestFindQuestionsFields(t *testing.T) {
	raw := `{"questions": [{"question_text": "Capital of France?", "choices": ["A) Paris", "B) Lyon"], "answer": "A"}]}`
	questions, _, err := FindQuestions(decodeJSON(t, raw))
	if err != nil {
		t.Fatalf("FindQuestions: %v", err)
	}
	q := questions[0]
	if q.QuestionText != "Capital of France?" {
		t.Errorf("QuestionText = %q", q.QuestionText)
	}
	if len(q.Choices) != 2 || q.Choices[1] != "B) Lyon" {
		t.Errorf("Choices = %v", q.Choices)
	}
	if q.Answer != "A" {
		t.Errorf("Answer = %q", q.Answer)
	}
}

func TestFindQuestionsHeader(t *testing.T) {
	raw := `{
		"timestamp": "2026-01-02T03:04:05Z",
		"number": 10,
		"modules": ["Module 7: Memory"],
		"question_types": ["Multiple Choice", "Text Answer"],
		"questions": [{"question_text": "Q1"}]
	}`
	_, header, err := FindQuestions(decodeJSON(t, raw))
	if err != nil {
		t.Fatalf("FindQuestions: %v", err)
	}
	if header.Timestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("Timestamp = %q", header.Timestamp)
	}
	if header.Number != 10 {
		t.Errorf("Number = %d", header.Number)
	}
	if len(header.Modules) != 1 || header.Modules[0] != "Module 7: Memory" {
		t.Errorf("Modules = %v", header.Modules)
	}
	if len(header.QuestionTypes) != 2 {
		t.Errorf("QuestionTypes = %v", header.QuestionTypes)
	}
}

func TestFindQuestionsWrappedHeader(t *testing.T) {
	// The wrapper holding the questions supplies the header, not the
	// outermost object.
	raw := `{"data": {"number": 5, "modules": ["Module 1: Psychological Foundations"], "questions": [{"question_text": "Q1"}]}}`
	_, header, err := FindQuestions(decodeJSON(t, raw))
	if err != nil {
		t.Fatalf("FindQuestions: %v", err)
	}
	if header.Number != 5 {
		t.Errorf("Number = %d, want 5 from data wrapper", header.Number)
	}
	if len(header.Modules) != 1 {
		t.Errorf("Modules = %v", header.Modules)
	}
}

func TestFindQuestionsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no questions anywhere", `{"foo": "bar", "baz": [1, 2, 3]}`},
		{"empty questions array", `{"questions": []}`},
		{"elements without prompt field", `{"questions": [{"answer": "A"}]}`},
		{"scalar", `"just a string"`},
		{"bare array of scalars", `["a", "b"]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := FindQuestions(decodeJSON(t, tc.raw))
			var malformed *MalformedResultError
			if !errors.As(err, &malformed) {
				t.Fatalf("err = %v, want MalformedResultError", err)
			}
			if malformed.Snapshot == "" {
				t.Error("malformed error carries no snapshot")
			}
		})
	}
}

func TestMalformedSnapshotTruncated(t *testing.T) {
	big := map[string]interface{}{"padding": strings.Repeat("x", 2000)}
	_, _, err := FindQuestions(big)
	var malformed *MalformedResultError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedResultError", err)
	}
	if len(malformed.Snapshot) > snapshotLimit+len("...") {
		t.Errorf("snapshot length = %d, want at most %d", len(malformed.Snapshot), snapshotLimit+3)
	}
}
