package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"

	"homeworkgen"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const sessionCookie = "homework-session"

// reviewRegistry holds in-flight review sessions keyed by the ID stored in
// the browser cookie. Sessions are dropped after their save completes or when
// a new generation replaces them.
type reviewRegistry struct {
	mu       sync.Mutex
	sessions map[string]*homeworkgen.ReviewSession
}

func newReviewRegistry() *reviewRegistry {
	return &reviewRegistry{sessions: make(map[string]*homeworkgen.ReviewSession)}
}

func (r *reviewRegistry) put(session *homeworkgen.ReviewSession) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = session
	r.mu.Unlock()
	return id
}

func (r *reviewRegistry) get(id string) *homeworkgen.ReviewSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

func (r *reviewRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// currentReview resolves the request's cookie to its review session.
func (s *Server) currentReview(r *http.Request) (string, *homeworkgen.ReviewSession) {
	cookie, _ := s.cookies.Get(r, sessionCookie)
	id, _ := cookie.Values["review_id"].(string)
	if id == "" {
		return "", nil
	}
	return id, s.reviews.get(id)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, "home", nil)
}

func (s *Server) handleFormPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "form", map[string]interface{}{
		"Modules":        formModules,
		"QuestionCounts": formQuestionCounts,
		"QuestionTypes":  formQuestionTypes,
	})
}

func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	number, _ := strconv.Atoi(r.FormValue("number"))
	req := homeworkgen.GenerationRequest{
		Modules:       r.Form["modules"],
		Number:        number,
		QuestionTypes: r.Form["question_types"],
	}
	if err := req.Validate(); err != nil {
		s.renderFormError(w, "Please pick at least one module, a question count, and at least one question type.")
		return
	}

	runID := uuid.NewString()
	logger, err := homeworkgen.NewLLMLogger(runID, req)
	if err != nil {
		log.Printf("Failed to create LLM logger for run %s: %v", runID, err)
		// Continue without logging rather than failing
	} else {
		defer logger.Close()
	}

	raw, err := s.generator.GenerateQuestions(r.Context(), req, logger)
	if err != nil {
		log.Printf("Generation failed for run %s: %v", runID, err)
		s.renderFormError(w, "Question generation failed. Please try again.")
		return
	}

	session, err := homeworkgen.NewReviewSession(raw, req, s.store)
	if err != nil {
		log.Printf("Unusable generation result for run %s: %v", runID, err)
		s.renderFormError(w, "The generated result could not be read. Please try again.")
		return
	}

	cookie, _ := s.cookies.Get(r, sessionCookie)
	if old, _ := cookie.Values["review_id"].(string); old != "" {
		s.reviews.remove(old)
	}
	cookie.Values["review_id"] = s.reviews.put(session)
	if err := cookie.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}

	http.Redirect(w, r, "/review", http.StatusSeeOther)
}

func (s *Server) renderFormError(w http.ResponseWriter, msg string) {
	s.render(w, "form", map[string]interface{}{
		"Modules":        formModules,
		"QuestionCounts": formQuestionCounts,
		"QuestionTypes":  formQuestionTypes,
		"Error":          msg,
	})
}

// choiceView is one answer choice prepared for the review template.
type choiceView struct {
	Index   int
	Text    string
	Correct bool
}

// itemView is one review item prepared for the review template.
type itemView struct {
	Index       int
	Status      homeworkgen.ReviewStatus
	Prompt      string
	Choices     []choiceView
	Answer      string
	DraftText   string
	DraftAnswer string
	Letters     []string
}

func buildItemView(i int, item homeworkgen.ReviewItem) itemView {
	v := itemView{
		Index:  i,
		Status: item.Status,
		Prompt: item.Prompt(),
		Answer: item.Answer,
	}

	choices := item.Choices
	answer := item.Answer
	if item.Status == homeworkgen.StatusEditing {
		v.DraftText = item.DraftText
		v.DraftAnswer = item.DraftAnswer
		if item.DraftChoices != nil {
			choices = item.DraftChoices
		}
		if item.DraftAnswer != "" {
			answer = item.DraftAnswer
		}
	}

	correct := homeworkgen.CorrectChoice(choices, answer)
	for j, choice := range choices {
		v.Choices = append(v.Choices, choiceView{Index: j, Text: choice, Correct: j == correct})
		v.Letters = append(v.Letters, homeworkgen.ChoiceLetter(choice, j))
	}
	return v
}

func (s *Server) handleReviewPage(w http.ResponseWriter, r *http.Request) {
	id, session := s.currentReview(r)
	if session == nil {
		http.Redirect(w, r, "/form", http.StatusSeeOther)
		return
	}

	if session.Saved() {
		s.reviews.remove(id)
		http.Redirect(w, r, "/assessments", http.StatusSeeOther)
		return
	}

	items := session.Items()
	views := make([]itemView, len(items))
	for i, item := range items {
		views[i] = buildItemView(i, item)
	}

	timestamp, number, modules, questionTypes := session.Header()
	data := map[string]interface{}{
		"Items":         views,
		"Timestamp":     timestamp,
		"Number":        number,
		"Modules":       modules,
		"QuestionTypes": questionTypes,
		"ResolvedEmpty": session.ResolvedEmpty(),
	}
	if err := session.SaveErr(); err != nil {
		data["SaveError"] = "Saving the assessment failed. Your review is intact; use Retry Save to try again."
	}
	s.render(w, "review", data)
}

// handleReviewAction applies one review operation posted from the review
// page: op, index, and for draft updates choice/value.
func (s *Server) handleReviewAction(w http.ResponseWriter, r *http.Request) {
	id, session := s.currentReview(r)
	if session == nil {
		http.Redirect(w, r, "/form", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	index, _ := strconv.Atoi(r.FormValue("index"))
	choice, _ := strconv.Atoi(r.FormValue("choice"))
	value := r.FormValue("value")
	ctx := r.Context()

	// The editing form's per-choice buttons post their own field instead
	// of op, so the typed draft fields travel with them.
	op := r.FormValue("op")
	if op == "" {
		if v := r.FormValue("remove"); v != "" {
			op = "remove_choice"
			choice, _ = strconv.Atoi(v)
		} else if r.FormValue("add") != "" {
			op = "add_choice"
		}
	}

	var err error
	switch op {
	case "keep":
		err = session.Keep(ctx, index)
	case "reject":
		err = session.Reject(ctx, index)
	case "edit":
		err = session.Edit(ctx, index)
	case "commit":
		// Draft fields posted together with the commit so typed text
		// is not lost between page loads.
		err = s.applyDraftForm(session, index, r)
		if err == nil {
			err = session.CommitEdit(ctx, index)
		}
	case "cancel":
		err = session.CancelEdit(ctx, index)
	case "add_choice":
		if err = s.applyDraftForm(session, index, r); err == nil {
			err = session.AddDraftChoice(index)
		}
	case "remove_choice":
		if err = s.applyDraftForm(session, index, r); err == nil {
			err = session.RemoveDraftChoice(index, choice)
		}
	case "set_text":
		err = session.SetDraftText(index, value)
	case "set_choice":
		err = session.SetDraftChoice(index, choice, value)
	case "set_answer":
		err = session.SetDraftAnswer(index, value)
	case "retry":
		err = session.Retry(ctx)
	default:
		http.Error(w, "Unknown operation", http.StatusBadRequest)
		return
	}

	if err != nil {
		if errors.Is(err, homeworkgen.ErrInvalidTransition) {
			// The page disables invalid actions; a stale submit lands here.
			log.Printf("Ignored review action: %v", err)
		} else {
			// Save failures land here too; the review page shows the
			// error and the retry affordance.
			log.Printf("Review action failed: %v", err)
		}
	}

	if session.Saved() {
		s.reviews.remove(id)
		http.Redirect(w, r, "/assessments", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/review", http.StatusSeeOther)
}

// applyDraftForm pushes the posted draft fields into the session before a
// structural draft operation or a commit.
func (s *Server) applyDraftForm(session *homeworkgen.ReviewSession, index int, r *http.Request) error {
	if text := r.FormValue("draft_text"); text != "" {
		if err := session.SetDraftText(index, text); err != nil {
			return err
		}
	}
	for j, choice := range r.Form["draft_choice"] {
		if err := session.SetDraftChoice(index, j, choice); err != nil {
			return err
		}
	}
	if answer := r.FormValue("draft_answer"); answer != "" {
		if err := session.SetDraftAnswer(index, answer); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleAssessmentsPage(w http.ResponseWriter, r *http.Request) {
	assessments, err := s.store.ListAssessments(r.Context())
	if err != nil {
		log.Printf("Failed to list assessments: %v", err)
		s.render(w, "assessments", map[string]interface{}{
			"Error": "Failed to load assessments.",
		})
		return
	}
	s.render(w, "assessments", map[string]interface{}{
		"Assessments": assessments,
	})
}

func (s *Server) handleAssessmentPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := s.store.GetAssessment(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get assessment %s: %v", id, err)
		http.NotFound(w, r)
		return
	}

	views := make([]itemView, len(record.Questions))
	for i, q := range record.Questions {
		views[i] = buildItemView(i, homeworkgen.ReviewItem{Question: q, Status: homeworkgen.StatusKept})
	}

	s.render(w, "assessment", map[string]interface{}{
		"Assessment": record,
		"Items":      views,
	})
}
