package homeworkgen

import (
	"encoding/json"
	"fmt"
	"sort"
)

// snapshotLimit caps how much of a malformed generation result is echoed back
// in the error for diagnostics.
const snapshotLimit = 200

// MalformedResultError is returned when no question collection can be located
// inside a generation result. Snapshot holds a truncated JSON rendering of
// the offending input.
type MalformedResultError struct {
	Snapshot string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("questions array not found in generation result: %s", e.Snapshot)
}

// ResultHeader holds the assessment header fields found alongside the
// question collection in a generation result.
type ResultHeader struct {
	Timestamp     string
	Number        int
	Modules       []string
	QuestionTypes []string
}

// FindQuestions locates the question collection inside a decoded generation
// result. Generation payloads arrive in several shapes: an object with a
// questions field, a bare array of questions, one level of wrapping under
// data or result, or questions nested deeper still. The shapes are tried in
// that order; the fallback is a depth-first search over object keys (sorted,
// for determinism) and array indices. The header fields of the object that
// held the questions are returned alongside them.
func FindQuestions(v interface{}) ([]Question, ResultHeader, error) {
	if obj, ok := v.(map[string]interface{}); ok {
		if qs, ok := questionsField(obj); ok {
			return qs, headerOf(obj), nil
		}
		if data, ok := obj["data"].(map[string]interface{}); ok {
			if qs, ok := questionsField(data); ok {
				return qs, headerOf(data), nil
			}
		}
		if result, ok := obj["result"].(map[string]interface{}); ok {
			if qs, ok := questionsField(result); ok {
				return qs, headerOf(result), nil
			}
		}
		if qs, ok := deepFind(obj); ok {
			return qs, headerOf(obj), nil
		}
	}

	if arr, ok := v.([]interface{}); ok {
		if qs, ok := questionArray(arr); ok {
			return qs, ResultHeader{}, nil
		}
		if qs, ok := deepFind(arr); ok {
			return qs, ResultHeader{}, nil
		}
	}

	return nil, ResultHeader{}, &MalformedResultError{Snapshot: snapshot(v)}
}

// deepFind searches v depth-first for a question collection. At each object
// a questions key is checked before the remaining keys.
func deepFind(v interface{}) ([]Question, bool) {
	switch val := v.(type) {
	case []interface{}:
		if qs, ok := questionArray(val); ok {
			return qs, true
		}
		for _, elem := range val {
			if qs, ok := deepFind(elem); ok {
				return qs, true
			}
		}
	case map[string]interface{}:
		if qs, ok := questionsField(val); ok {
			return qs, true
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if qs, ok := deepFind(val[k]); ok {
				return qs, true
			}
		}
	}
	return nil, false
}

func questionsField(obj map[string]interface{}) ([]Question, bool) {
	arr, ok := obj["questions"].([]interface{})
	if !ok {
		return nil, false
	}
	return questionArray(arr)
}

// questionArray converts arr when it is a non-empty array whose first element
// exposes a prompt-text field (text or question_text).
func questionArray(arr []interface{}) ([]Question, bool) {
	if len(arr) == 0 {
		return nil, false
	}
	first, ok := arr[0].(map[string]interface{})
	if !ok {
		return nil, false
	}
	if stringField(first, "text") == "" && stringField(first, "question_text") == "" {
		return nil, false
	}

	questions := make([]Question, 0, len(arr))
	for _, elem := range arr {
		obj, ok := elem.(map[string]interface{})
		if !ok {
			continue
		}
		q := Question{
			Text:         stringField(obj, "text"),
			QuestionText: stringField(obj, "question_text"),
			Answer:       stringField(obj, "answer"),
		}
		if choices, ok := obj["choices"].([]interface{}); ok {
			for _, c := range choices {
				if s, ok := c.(string); ok {
					q.Choices = append(q.Choices, s)
				}
			}
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func headerOf(obj map[string]interface{}) ResultHeader {
	h := ResultHeader{
		Timestamp: stringField(obj, "timestamp"),
		Modules:   stringSlice(obj, "modules"),
	}
	h.QuestionTypes = stringSlice(obj, "question_types")
	if n, ok := obj["number"].(float64); ok {
		h.Number = int(n)
	}
	return h
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}

func stringSlice(obj map[string]interface{}, key string) []string {
	arr, ok := obj[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func snapshot(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%.200v", v)
	}
	if len(data) > snapshotLimit {
		return string(data[:snapshotLimit]) + "..."
	}
	return string(data)
}
