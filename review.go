package homeworkgen

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Saver stores a finished assessment. Implemented by *DB; tests substitute
// their own.
type Saver interface {
	SaveAssessment(ctx context.Context, record *AssessmentRecord) (*AssessmentRecord, error)
}

// ReviewSession owns the working set of generated questions and applies the
// reviewer's decisions. Once every item is kept or rejected the accepted set
// is saved exactly once; a failed save re-arms so the next decision (or an
// explicit Retry) attempts it again.
//
// All operations lock the session, so each decision is applied in full before
// the next is considered.
type ReviewSession struct {
	mu    sync.Mutex
	items []*ReviewItem

	timestamp     string
	number        int
	modules       []string
	questionTypes []string

	saver       Saver
	saveStarted bool
	stored      *AssessmentRecord
	saveErr     error
}

// NewReviewSession locates the question collection inside a raw generation
// result and builds a session of pending items. Header fields found in the
// result win over the originating request's; the timestamp defaults to now.
func NewReviewSession(raw interface{}, req GenerationRequest, saver Saver) (*ReviewSession, error) {
	questions, header, err := FindQuestions(raw)
	if err != nil {
		return nil, err
	}

	s := &ReviewSession{
		timestamp:     header.Timestamp,
		number:        header.Number,
		modules:       header.Modules,
		questionTypes: header.QuestionTypes,
		saver:         saver,
	}
	if s.timestamp == "" {
		s.timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if s.number == 0 {
		s.number = req.Number
	}
	if len(s.modules) == 0 {
		s.modules = req.Modules
	}
	if len(s.questionTypes) == 0 {
		s.questionTypes = req.QuestionTypes
	}

	for _, q := range questions {
		s.items = append(s.items, &ReviewItem{Question: q, Status: StatusPending})
	}
	return s, nil
}

// Items returns a snapshot of the session's items. Choice slices are copied
// so the snapshot stays stable while draft mutations continue.
func (s *ReviewSession) Items() []ReviewItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]ReviewItem, len(s.items))
	for i, item := range s.items {
		items[i] = *item
		items[i].Choices = append([]string(nil), item.Choices...)
		items[i].DraftChoices = append([]string(nil), item.DraftChoices...)
	}
	return items
}

// Header returns the session's assessment header fields.
func (s *ReviewSession) Header() (timestamp string, number int, modules, questionTypes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timestamp, s.number, s.modules, s.questionTypes
}

// Saved reports whether the accepted set has been stored.
func (s *ReviewSession) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored != nil
}

// StoredRecord returns the record returned by the store, or nil before a
// successful save.
func (s *ReviewSession) StoredRecord() *AssessmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored
}

// SaveErr returns the most recent save failure, or nil.
func (s *ReviewSession) SaveErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

// Resolved reports whether every item has reached kept or rejected.
func (s *ReviewSession) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allDecided()
}

// ResolvedEmpty reports whether the session finished with every item
// rejected; such a session never saves.
func (s *ReviewSession) ResolvedEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allDecided() && s.keptCount() == 0
}

// Keep accepts item i as-is.
func (s *ReviewSession) Keep(ctx context.Context, i int) error {
	s.mu.Lock()
	item, err := s.item(i)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if item.Status != StatusPending {
		s.mu.Unlock()
		return fmt.Errorf("keep item %d in status %s: %w", i, item.Status, ErrInvalidTransition)
	}
	item.Status = StatusKept
	return s.finishMutation(ctx)
}

// Reject discards item i. Rejection is final.
func (s *ReviewSession) Reject(ctx context.Context, i int) error {
	s.mu.Lock()
	item, err := s.item(i)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if item.Status != StatusPending {
		s.mu.Unlock()
		return fmt.Errorf("reject item %d in status %s: %w", i, item.Status, ErrInvalidTransition)
	}
	item.Status = StatusRejected
	return s.finishMutation(ctx)
}

// Edit begins editing item i, snapshotting its fields into the draft buffer.
// Already-kept items may be re-edited.
func (s *ReviewSession) Edit(ctx context.Context, i int) error {
	s.mu.Lock()
	item, err := s.item(i)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if item.Status != StatusPending && item.Status != StatusKept {
		s.mu.Unlock()
		return fmt.Errorf("edit item %d in status %s: %w", i, item.Status, ErrInvalidTransition)
	}
	item.Status = StatusEditing
	item.DraftText = item.Prompt()
	item.DraftAnswer = item.Answer
	if item.Choices != nil {
		item.DraftChoices = append([]string(nil), item.Choices...)
	} else {
		item.DraftChoices = nil
	}
	return s.finishMutation(ctx)
}

// CommitEdit copies non-empty draft fields onto item i's canonical fields,
// clears the draft buffer, and marks the item kept.
func (s *ReviewSession) CommitEdit(ctx context.Context, i int) error {
	s.mu.Lock()
	item, err := s.item(i)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if item.Status != StatusEditing {
		s.mu.Unlock()
		return fmt.Errorf("commit edit of item %d in status %s: %w", i, item.Status, ErrInvalidTransition)
	}
	if item.DraftText != "" {
		item.Text = item.DraftText
		item.QuestionText = item.DraftText
	}
	if len(item.DraftChoices) > 0 {
		item.Choices = item.DraftChoices
	}
	if item.DraftAnswer != "" {
		item.Answer = item.DraftAnswer
	}
	item.Status = StatusKept
	s.clearDraft(item)
	return s.finishMutation(ctx)
}

// CancelEdit discards item i's draft buffer and returns it to pending.
func (s *ReviewSession) CancelEdit(ctx context.Context, i int) error {
	s.mu.Lock()
	item, err := s.item(i)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if item.Status != StatusEditing {
		s.mu.Unlock()
		return fmt.Errorf("cancel edit of item %d in status %s: %w", i, item.Status, ErrInvalidTransition)
	}
	item.Status = StatusPending
	s.clearDraft(item)
	return s.finishMutation(ctx)
}

// SetDraftText replaces the draft question text of item i.
func (s *ReviewSession) SetDraftText(i int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.editingItem(i)
	if err != nil {
		return err
	}
	item.DraftText = text
	return nil
}

// SetDraftChoice replaces draft choice j of item i, initializing the draft
// choices from the canonical ones if needed.
func (s *ReviewSession) SetDraftChoice(i, j int, choice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.editingItem(i)
	if err != nil {
		return err
	}
	if item.DraftChoices == nil && item.Choices != nil {
		item.DraftChoices = append([]string(nil), item.Choices...)
	}
	if j < 0 || j >= len(item.DraftChoices) {
		return fmt.Errorf("choice index %d out of range for item %d", j, i)
	}
	item.DraftChoices[j] = choice
	return nil
}

// AddDraftChoice appends an empty draft choice to item i.
func (s *ReviewSession) AddDraftChoice(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.editingItem(i)
	if err != nil {
		return err
	}
	if item.DraftChoices == nil && item.Choices != nil {
		item.DraftChoices = append([]string(nil), item.Choices...)
	}
	item.DraftChoices = append(item.DraftChoices, "")
	return nil
}

// RemoveDraftChoice removes draft choice j of item i. A no-op when the draft
// choices are unset.
func (s *ReviewSession) RemoveDraftChoice(i, j int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.editingItem(i)
	if err != nil {
		return err
	}
	if item.DraftChoices == nil {
		return nil
	}
	if j < 0 || j >= len(item.DraftChoices) {
		return fmt.Errorf("choice index %d out of range for item %d", j, i)
	}
	item.DraftChoices = append(item.DraftChoices[:j], item.DraftChoices[j+1:]...)
	return nil
}

// SetDraftAnswer replaces the draft answer token of item i.
func (s *ReviewSession) SetDraftAnswer(i int, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.editingItem(i)
	if err != nil {
		return err
	}
	item.DraftAnswer = answer
	return nil
}

// Retry re-attempts the save after a failure. A no-op unless the session is
// fully decided with at least one kept item and no save has succeeded.
func (s *ReviewSession) Retry(ctx context.Context) error {
	s.mu.Lock()
	return s.finishMutation(ctx)
}

func (s *ReviewSession) item(i int) (*ReviewItem, error) {
	if i < 0 || i >= len(s.items) {
		return nil, fmt.Errorf("item index %d out of range", i)
	}
	return s.items[i], nil
}

func (s *ReviewSession) editingItem(i int) (*ReviewItem, error) {
	item, err := s.item(i)
	if err != nil {
		return nil, err
	}
	if item.Status != StatusEditing {
		return nil, fmt.Errorf("item %d is not being edited: %w", i, ErrInvalidTransition)
	}
	return item, nil
}

func (s *ReviewSession) clearDraft(item *ReviewItem) {
	item.DraftText = ""
	item.DraftChoices = nil
	item.DraftAnswer = ""
}

func (s *ReviewSession) allDecided() bool {
	for _, item := range s.items {
		if item.Status != StatusKept && item.Status != StatusRejected {
			return false
		}
	}
	return true
}

func (s *ReviewSession) keptCount() int {
	n := 0
	for _, item := range s.items {
		if item.Status == StatusKept {
			n++
		}
	}
	return n
}

// finishMutation re-evaluates the completion predicate after a mutation and
// triggers the single save when it first holds. Called with s.mu held;
// releases it. The latch is set before the store call begins so racing
// evaluations cannot issue a second save, and is cleared on failure so a
// later mutation retries.
func (s *ReviewSession) finishMutation(ctx context.Context) error {
	if s.saveStarted || s.stored != nil || !s.allDecided() || s.keptCount() == 0 {
		s.mu.Unlock()
		return nil
	}

	record := &AssessmentRecord{
		Timestamp:     s.timestamp,
		Number:        s.number,
		Modules:       s.modules,
		QuestionTypes: s.questionTypes,
	}
	for _, item := range s.items {
		if item.Status != StatusKept {
			continue
		}
		record.Questions = append(record.Questions, acceptedQuestion(item))
	}
	s.saveStarted = true
	s.mu.Unlock()

	stored, err := s.saver.SaveAssessment(ctx, record)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.saveStarted = false
		s.saveErr = fmt.Errorf("failed to save assessment: %w", err)
		return s.saveErr
	}
	s.stored = stored
	s.saveErr = nil
	return nil
}

// acceptedQuestion resolves a kept item to the question that gets persisted,
// preferring any non-empty draft field over the canonical one.
func acceptedQuestion(item *ReviewItem) Question {
	q := Question{
		Text:    item.Prompt(),
		Choices: item.Choices,
		Answer:  item.Answer,
	}
	if item.DraftText != "" {
		q.Text = item.DraftText
	}
	if len(item.DraftChoices) > 0 {
		q.Choices = item.DraftChoices
	}
	if item.DraftAnswer != "" {
		q.Answer = item.DraftAnswer
	}
	return q
}
