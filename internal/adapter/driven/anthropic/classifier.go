// Package anthropic implements the MentionClassifier port with the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MentionClassifier = (*Classifier)(nil)

// PromptVersion identifies systemPrompt. Bump it whenever the prompt changes
// so stored verdicts are re-evaluated.
const PromptVersion = "mention-response-v1"

// DefaultModel is used when no model is configured.
const DefaultModel = sdk.ModelClaudeSonnet4_5_20250929

const (
	maxTokens    = 256
	maxBodyRunes = 4000
)

const systemPrompt = `You decide whether an @mention in a code collaboration comment asks the mentioned person for a response.
A response is required when the comment asks them a question, requests a review, decision, or action, or otherwise waits on them.
A response is not required for FYI mentions, thanks, credit, or status updates that need no reply.
Respond ONLY with a JSON object: {"requires_response": true|false, "reasoning": "<one short sentence>"}`

// ErrUnparseableVerdict is returned when the model answer is not the expected JSON.
var ErrUnparseableVerdict = errors.New("unparseable classifier verdict")

// Classifier asks a Claude model whether a mention requires a response.
type Classifier struct {
	client  sdk.Client
	model   string
	limiter *rate.Limiter
}

type settings struct {
	requestsPerSecond float64
	requestOptions    []option.RequestOption
}

// Option configures a Classifier.
type Option func(*settings)

// WithRateLimit caps outgoing requests per second. Zero or negative disables the cap.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(s *settings) { s.requestsPerSecond = requestsPerSecond }
}

// WithRequestOptions passes client options through to the SDK.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(s *settings) { s.requestOptions = append(s.requestOptions, opts...) }
}

// NewClassifier creates a Classifier for the given API key and model.
func NewClassifier(apiKey, model string, opts ...Option) *Classifier {
	s := settings{requestsPerSecond: 2}
	for _, opt := range opts {
		opt(&s)
	}

	if model == "" {
		model = string(DefaultModel)
	}

	limit := rate.Inf
	if s.requestsPerSecond > 0 {
		limit = rate.Limit(s.requestsPerSecond)
	}

	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, s.requestOptions...)
	return &Classifier{
		client:  sdk.NewClient(clientOpts...),
		model:   model,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// PromptVersion returns the version of the prompt this classifier sends.
func (c *Classifier) PromptVersion() string {
	return PromptVersion
}

// Classify sends one mention to the model and parses its verdict.
func (c *Classifier) Classify(ctx context.Context, input driven.MentionClassificationInput) (driven.MentionVerdict, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return driven.MentionVerdict{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	message, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(buildPrompt(input))),
		},
	})
	if err != nil {
		return driven.MentionVerdict{}, fmt.Errorf("classify comment %d: %w", input.CommentID, err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		return driven.MentionVerdict{}, fmt.Errorf("classify comment %d: %w", input.CommentID, err)
	}
	verdict.Model = string(message.Model)
	if verdict.Model == "" {
		verdict.Model = c.model
	}
	return verdict, nil
}

func buildPrompt(input driven.MentionClassificationInput) string {
	body := strings.TrimSpace(input.Body)
	if utf8.RuneCountInString(body) > maxBodyRunes {
		body = string([]rune(body)[:maxBodyRunes]) + "…"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Comment author: @%s\n", input.AuthorLogin)
	fmt.Fprintf(&sb, "Mentioned user: @%s\n", input.MentionedLogin)
	fmt.Fprintf(&sb, "Posted on: %s %q\n", strings.ReplaceAll(string(input.ContainerType), "_", " "), input.ContainerTitle)
	sb.WriteString("\nComment:\n")
	sb.WriteString(body)
	sb.WriteString("\n\nDoes this comment require a response from the mentioned user?")
	return sb.String()
}

type verdictJSON struct {
	RequiresResponse *bool  `json:"requires_response"`
	Reasoning        string `json:"reasoning"`
}

// parseVerdict reads the JSON answer, tolerating prose around the object.
func parseVerdict(text string) (driven.MentionVerdict, error) {
	var v verdictJSON
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return driven.MentionVerdict{}, fmt.Errorf("%w: %q", ErrUnparseableVerdict, text)
		}
		v = verdictJSON{}
		if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
			return driven.MentionVerdict{}, fmt.Errorf("%w: %v", ErrUnparseableVerdict, err)
		}
	}
	if v.RequiresResponse == nil {
		return driven.MentionVerdict{}, fmt.Errorf("%w: missing requires_response", ErrUnparseableVerdict)
	}

	return driven.MentionVerdict{
		RequiresResponse: *v.RequiresResponse,
		Reasoning:        strings.TrimSpace(v.Reasoning),
	}, nil
}
