package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"homeworkgen"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	var (
		modules       = flag.String("modules", "", "Comma-separated course modules (required)")
		number        = flag.Int("number", 10, "Number of questions to generate")
		questionTypes = flag.String("types", "Multiple Choice", "Comma-separated question types")
		outputFile    = flag.String("output", "", "Output file for question JSON (default: stdout)")
		apiKey        = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		verbose       = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	homeworkgen.SetVerbose(*verbose)

	// Get API key from flag or environment
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal("OpenAI API key is required. Use -api-key flag or set OPENAI_API_KEY environment variable.")
		}
	}

	req := homeworkgen.GenerationRequest{
		Modules:       splitList(*modules),
		Number:        *number,
		QuestionTypes: splitList(*questionTypes),
	}
	if err := req.Validate(); err != nil {
		log.Fatalf("Invalid request: %v", err)
	}

	maker := homeworkgen.NewQuestionMaker(*apiKey)

	runID := uuid.NewString()
	logger, err := homeworkgen.NewLLMLogger(runID, req)
	if err != nil {
		log.Printf("Failed to create LLM logger: %v", err)
	} else {
		defer logger.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	raw, err := maker.GenerateQuestions(ctx, req, logger)
	if err != nil {
		log.Fatalf("Failed to generate questions: %v", err)
	}

	output, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Questions saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
