package homeworkgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ParseFailureError means the model returned a payload that could not be
// interpreted as structured question data.
type ParseFailureError struct {
	Payload string
	Err     error
}

func (e *ParseFailureError) Error() string {
	return fmt.Sprintf("failed to parse generation payload: %v", e.Err)
}

func (e *ParseFailureError) Unwrap() error { return e.Err }

// QuestionMaker generates assessment questions using the OpenAI API
type QuestionMaker struct {
	client *openai.Client
}

// NewQuestionMaker creates a new question maker with OpenAI client
func NewQuestionMaker(apiKey string) *QuestionMaker {
	return &QuestionMaker{
		client: openai.NewClient(apiKey),
	}
}

// GenerateQuestions requests req.Number questions for the chosen modules and
// question types, and returns the parsed payload as an opaque structure for
// the review session to pick through. One outbound call, no retries; failures
// surface directly.
func (qm *QuestionMaker) GenerateQuestions(ctx context.Context, req GenerationRequest, logger *LLMLogger) (interface{}, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	VerboseLog("Generating %d questions for modules: %s", req.Number, strings.Join(req.Modules, ", "))

	prompt := qm.buildPrompt(req)
	if logger != nil {
		logger.LogLLMRequest("QuestionMaker", prompt)
	}

	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are an expert course assessment writer. Generate high-quality homework questions of the requested types for the requested course modules.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_questions",
						Description: "Submit generated assessment questions",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"questions": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"question_text": map[string]interface{}{
												"type":        "string",
												"description": "The question text",
											},
											"choices": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "string",
												},
												"description": "Answer choices, each prefixed with a letter label like \"A) \". Omit for free-text questions.",
											},
											"answer": map[string]interface{}{
												"type":        "string",
												"description": "The correct answer: the choice's letter for multiple choice, free text otherwise",
											},
										},
										"required": []string{"question_text", "answer"},
									},
								},
							},
							"required": []string{"questions"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_questions",
				},
			},
		},
	)

	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls in response")
	}

	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != "submit_questions" {
		return nil, fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}

	payload := toolCall.Function.Arguments
	if logger != nil {
		logger.LogLLMResponse("QuestionMaker", payload)
	}

	if strings.TrimSpace(payload) == "" {
		return nil, &ParseFailureError{Payload: payload, Err: fmt.Errorf("empty payload")}
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, &ParseFailureError{Payload: payload, Err: err}
	}

	return parsed, nil
}

func (qm *QuestionMaker) buildPrompt(req GenerationRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d homework questions covering these course modules: %s\n\n", req.Number, strings.Join(req.Modules, ", ")))
	sb.WriteString(fmt.Sprintf("Question types to use: %s\n\n", strings.Join(req.QuestionTypes, ", ")))

	sb.WriteString("Requirements:\n")
	sb.WriteString("- Spread questions across the listed modules and question types\n")
	sb.WriteString("- Multiple choice questions must have 4 choices, each prefixed with a letter label like \"A) \"\n")
	sb.WriteString("- For multiple choice, the answer field is the correct choice's letter\n")
	sb.WriteString("- For text answer questions, omit choices and put the expected answer in the answer field\n")
	sb.WriteString("- Questions should test understanding, not just memorization\n")
	sb.WriteString("- Avoid questions where the answer is given away in the question text\n")
	sb.WriteString("- Use the submit_questions tool to return your questions\n")

	return sb.String()
}
