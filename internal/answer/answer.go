// Package answer generates natural-language answers from retrieved passages
// using an OpenAI-compatible chat completion model.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/repoqa/repoqa/pkg/types"
)

// ErrNoAnswer is returned when the model produces no completion choices.
var ErrNoAnswer = errors.New("model returned no answer")

// ChatClient is the subset of the OpenAI client used for answering.
// *openai.Client satisfies it; tests supply a mock.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// RepoStats summarizes the indexed corpus for prompt context: how many
// files of each type were loaded, and their repo-relative paths.
type RepoStats struct {
	FileTypeCounts map[string]int
	FileNames      []string
}

// Asker turns a question plus retrieved passages into an answer. The model
// name is fixed at construction and threaded explicitly; there is no
// ambient default-model state.
type Asker struct {
	client   ChatClient
	model    string
	repoName string
	repoURL  string
	stats    RepoStats
}

// New creates an Asker for one repository session.
func New(client ChatClient, model, repoName, repoURL string, stats RepoStats) *Asker {
	return &Asker{client: client, model: model, repoName: repoName, repoURL: repoURL, stats: stats}
}

// NewOpenAIClient builds the real OpenAI client from an API key.
func NewOpenAIClient(apiKey string) (*openai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	return openai.NewClient(apiKey), nil
}

// Ask answers the question from the retrieved passages and the running
// conversation history.
func (a *Asker) Ask(ctx context.Context, question string, results []types.SearchResult, conversationHistory string) (string, error) {
	question = FormatQuestion(question)
	if question == "" {
		return "", errors.New("question is empty")
	}

	prompt := a.buildPrompt(question, results, conversationHistory)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoAnswer
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
