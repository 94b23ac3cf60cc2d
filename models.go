package homeworkgen

import (
	"errors"
	"fmt"
	"time"
)

// Question represents a single generated question. Generated payloads are
// inconsistent about the stem field name (text vs question_text), so both are
// carried and Prompt resolves them.
type Question struct {
	Text         string   `json:"text,omitempty"`
	QuestionText string   `json:"question_text,omitempty"`
	Choices      []string `json:"choices,omitempty"`
	Answer       string   `json:"answer,omitempty"`
}

// Prompt returns the question stem, preferring question_text over text.
func (q Question) Prompt() string {
	if q.QuestionText != "" {
		return q.QuestionText
	}
	return q.Text
}

// ReviewStatus represents the disposition of a question under review
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusKept     ReviewStatus = "kept"
	StatusEditing  ReviewStatus = "editing"
	StatusRejected ReviewStatus = "rejected"
)

// ReviewItem is a Question plus its review disposition and, while editing,
// working copies of the editable fields.
type ReviewItem struct {
	Question
	Status ReviewStatus `json:"status"`

	// Draft fields are set only while Status is StatusEditing.
	DraftText    string   `json:"draft_text,omitempty"`
	DraftChoices []string `json:"draft_choices,omitempty"`
	DraftAnswer  string   `json:"draft_answer,omitempty"`
}

// AssessmentRecord is the persisted unit: the accepted questions plus the
// descriptive header they were generated from.
type AssessmentRecord struct {
	ID            string     `json:"id,omitempty"`
	Timestamp     string     `json:"timestamp"`
	Number        int        `json:"number"`
	Modules       []string   `json:"modules"`
	QuestionTypes []string   `json:"question_types"`
	Questions     []Question `json:"questions"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at,omitempty"`
}

// Title builds a display title from the record's modules.
func (a AssessmentRecord) Title() string {
	switch len(a.Modules) {
	case 0:
		return "Untitled Assessment"
	case 1:
		return a.Modules[0] + " Assessment"
	case 2:
		return a.Modules[0] + " & " + a.Modules[1] + " Assessment"
	default:
		return fmt.Sprintf("%s & %d More Assessment", a.Modules[0], len(a.Modules)-1)
	}
}

// GenerationRequest represents a request to generate questions
type GenerationRequest struct {
	Modules       []string `json:"modules"`
	Number        int      `json:"number"`
	QuestionTypes []string `json:"question_types"`
}

// Validate checks that all required generation parameters are present.
func (r GenerationRequest) Validate() error {
	if len(r.Modules) == 0 || r.Number <= 0 || len(r.QuestionTypes) == 0 {
		return ErrInvalidRequest
	}
	return nil
}

var (
	// ErrInvalidRequest means the caller omitted a required generation field.
	ErrInvalidRequest = errors.New("missing required fields: modules, number, or question_types")

	// ErrInvalidTransition means a review operation was applied to an item
	// whose status does not permit it.
	ErrInvalidTransition = errors.New("invalid review transition")
)
