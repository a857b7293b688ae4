package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/voyagerhq/tripcart/internal/domain"
)

// systemPrompt instructs the model to answer with the itinerary JSON the
// app stores verbatim. Responses that are not valid JSON are treated as
// supplier failures.
const systemPrompt = `You are a travel planner. Produce a day-by-day itinerary
for the requested trip as a single JSON object with this shape:
{"destination": string, "days": [{"day": number, "title": string, "activities": [string]}], "summary": string}
Respond with the JSON object only, no prose and no code fences.`

// OpenAIGenerator produces itineraries through a chat-completion model.
// Any API error, empty response, or non-JSON response is a supplier
// error; the worker records those as a failed trip.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// compile-time check: OpenAIGenerator must satisfy Generator.
var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator constructs a generator against the given endpoint
// and key. An empty baseURL uses the public OpenAI API.
func NewOpenAIGenerator(baseURL, apiKey, model string) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{client: &client, model: model}
}

// Generate asks the model for an itinerary and validates that the reply
// parses as JSON before handing it back as the opaque payload.
func (g *OpenAIGenerator) Generate(ctx context.Context, trip domain.Trip) (json.RawMessage, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(tripPrompt(trip)),
					},
				},
			},
		},
		MaxTokens:   openai.Int(1500),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSupplier, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: empty response", ErrSupplier)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrSupplier)
	}
	return json.RawMessage(content), nil
}

// tripPrompt renders the trip parameters as the user message.
func tripPrompt(trip domain.Trip) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Destination: %s\n", trip.Destination)
	fmt.Fprintf(&b, "Dates: %s to %s (%d nights)\n",
		trip.StartDate.Format("2006-01-02"), trip.EndDate.Format("2006-01-02"), trip.Nights())
	fmt.Fprintf(&b, "Travelers: %d\n", trip.Travelers)
	if trip.Budget != "" {
		fmt.Fprintf(&b, "Budget: %s\n", trip.Budget)
	}
	if len(trip.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s\n", strings.Join(trip.Interests, ", "))
	}
	return b.String()
}
