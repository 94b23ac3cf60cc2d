package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"homeworkgen"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func apiError(w http.ResponseWriter, status int, msg, details string) {
	body := map[string]interface{}{"error": msg}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

// handleAPIGenerate validates the generation parameters, makes the single
// outbound model call, and returns the parsed question structure as-is.
func (s *Server) handleAPIGenerate(w http.ResponseWriter, r *http.Request) {
	var req homeworkgen.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		apiError(w, http.StatusBadRequest, "Missing required fields: modules, number, or question_types", "")
		return
	}

	raw, err := s.generator.GenerateQuestions(r.Context(), req, nil)
	if err != nil {
		log.Printf("Error generating questions: %v", err)
		var parseErr *homeworkgen.ParseFailureError
		if errors.As(err, &parseErr) {
			apiError(w, http.StatusInternalServerError, "Failed to parse model output", parseErr.Err.Error())
			return
		}
		apiError(w, http.StatusInternalServerError, "Question generation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, raw)
}

func (s *Server) handleAPIListAssessments(w http.ResponseWriter, r *http.Request) {
	assessments, err := s.store.ListAssessments(r.Context())
	if err != nil {
		log.Printf("Error fetching assessments: %v", err)
		apiError(w, http.StatusInternalServerError, "Failed to fetch assessments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    assessments,
	})
}

type saveAssessmentBody struct {
	AssessmentData *struct {
		Timestamp     string    `json:"timestamp"`
		Number        *int      `json:"number"`
		Modules       *[]string `json:"modules"`
		QuestionTypes *[]string `json:"question_types"`
	} `json:"assessment_data"`
	AcceptedQuestions *[]homeworkgen.Question `json:"accepted_questions"`
}

func (s *Server) handleAPISaveAssessment(w http.ResponseWriter, r *http.Request) {
	var body saveAssessmentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}

	if body.AssessmentData == nil || body.AcceptedQuestions == nil {
		apiError(w, http.StatusBadRequest, "Missing required fields: assessment_data or accepted_questions", "")
		return
	}

	data := body.AssessmentData
	if data.Number == nil {
		apiError(w, http.StatusBadRequest, "Invalid number field: must be an integer", "")
		return
	}
	if data.Modules == nil {
		apiError(w, http.StatusBadRequest, "Invalid modules field: must be an array", "")
		return
	}
	if data.QuestionTypes == nil {
		apiError(w, http.StatusBadRequest, "Invalid question_types field: must be an array", "")
		return
	}

	timestamp := data.Timestamp
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	record := &homeworkgen.AssessmentRecord{
		Timestamp:     timestamp,
		Number:        *data.Number,
		Modules:       *data.Modules,
		QuestionTypes: *data.QuestionTypes,
		Questions:     *body.AcceptedQuestions,
	}

	stored, err := s.store.SaveAssessment(r.Context(), record)
	if err != nil {
		log.Printf("Error saving assessment: %v", err)
		apiError(w, http.StatusInternalServerError, "Failed to save assessment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    stored,
	})
}
