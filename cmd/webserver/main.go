package main

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"homeworkgen"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

// Module list and form vocabulary for the assessment request form.
var formModules = []string{
	"Module 1: Psychological Foundations",
	"Module 2: Research in Psychology",
	"Module 3: Biopsychology",
	"Module 4: States of Consciousness",
	"Module 5: Sensation and Perception",
	"Module 6: Thinking and Intelligence",
	"Module 7: Memory",
	"Module 8: Learning",
	"Module 9: Lifespan Development",
	"Module 10: Social Psychology",
	"Module 11: Personality",
	"Module 12: Emotion and Motivation",
	"Module 13: Industrial-Organizational Psychology",
	"Module 14: Psychological Disorders",
	"Module 15: Therapy and Treatment",
	"Module 16: Stress and Health",
}

var formQuestionCounts = []int{5, 10, 15, 20}

var formQuestionTypes = []string{
	"Multiple Choice",
	"Multiple Answer",
	"Text Answer",
	"Matching",
}

// Generator produces the raw question structure for a generation request.
type Generator interface {
	GenerateQuestions(ctx context.Context, req homeworkgen.GenerationRequest, logger *homeworkgen.LLMLogger) (interface{}, error)
}

// Store is the persistence boundary used by the handlers.
type Store interface {
	homeworkgen.Saver
	ListAssessments(ctx context.Context) ([]homeworkgen.AssessmentRecord, error)
	GetAssessment(ctx context.Context, id string) (*homeworkgen.AssessmentRecord, error)
}

type Server struct {
	store     Store
	generator Generator
	cookies   *sessions.CookieStore
	templates map[string]*template.Template
	reviews   *reviewRegistry
}

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	homeworkgen.SetVerbose(os.Getenv("VERBOSE") != "")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./assessments.db"
	}

	db, err := homeworkgen.SharedDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.CloseDB()

	sessionKey := os.Getenv("SESSION_KEY")
	if sessionKey == "" {
		sessionKey = "homework-generator-dev-key"
	}

	server := &Server{
		store:     db,
		generator: homeworkgen.NewQuestionMaker(apiKey),
		cookies:   sessions.NewCookieStore([]byte(sessionKey)),
		templates: loadTemplates(),
		reviews:   newReviewRegistry(),
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, server.routes()))
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger, middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/form", s.handleFormPage)
	r.Post("/form", s.handleFormSubmit)
	r.Get("/review", s.handleReviewPage)
	r.Post("/review/action", s.handleReviewAction)
	r.Get("/assessments", s.handleAssessmentsPage)
	r.Get("/assessments/{id}", s.handleAssessmentPage)

	r.Route("/api", func(ar chi.Router) {
		ar.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Accept"},
		}))
		ar.Post("/generate", s.handleAPIGenerate)
		ar.Get("/assessments", s.handleAPIListAssessments)
		ar.Post("/assessments", s.handleAPISaveAssessment)
	})

	return r
}

func loadTemplates() map[string]*template.Template {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"join": func(items []string, sep string) string {
			return strings.Join(items, sep)
		},
		"formatTime": func(t time.Time) string {
			return t.Format("January 2, 2006 15:04")
		},
	}

	templates := make(map[string]*template.Template)

	templateFiles := []struct {
		name string
		file string
	}{
		{"home", "templates/home.html"},
		{"form", "templates/form.html"},
		{"review", "templates/review.html"},
		{"assessments", "templates/assessments.html"},
		{"assessment", "templates/assessment.html"},
	}

	for _, tmpl := range templateFiles {
		templates[tmpl.name] = template.Must(template.New(tmpl.name).Funcs(funcMap).ParseFiles("templates/base.html", tmpl.file))
	}

	return templates
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	err := s.templates[name].ExecuteTemplate(w, "base.html", data)
	if err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
