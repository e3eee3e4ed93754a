package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/soaringjerry/moodtrack/internal/models"
)

const supportInstructions = `You are a supportive listener inside a mental-health self-monitoring study app.
Reply warmly and briefly (at most four sentences) to the participant's latest message.
Do not diagnose or give medical advice. If the participant mentions self-harm or being in danger,
encourage them to contact local emergency services or a crisis helpline right away.
Respond only with JSON matching the provided schema.`

// maxTranscriptMessages bounds how much of the conversation is sent back to the model.
const maxTranscriptMessages = 20

type chatReply struct {
	Reply string `json:"reply" jsonschema:"required,description=Supportive reply shown to the participant"`
}

var chatReplySchema = generateSchema[chatReply]()

// OpenAI answers through the Responses API with a strict JSON schema.
type OpenAI struct {
	client     *openai.Client
	model      string
	retryWaits []time.Duration
}

func NewOpenAI(apiKey, model string, opts ...option.RequestOption) *OpenAI {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAI{
		client:     &client,
		model:      model,
		retryWaits: []time.Duration{5 * time.Second, 30 * time.Second},
	}
}

func (a *OpenAI) Reply(ctx context.Context, message string, transcript []models.ChatMessage) (string, error) {
	if a.client == nil {
		return "", errors.New("openai agent: client is nil")
	}
	if a.model == "" {
		return "", errors.New("openai agent: model is empty")
	}
	params := responses.ResponseNewParams{
		Model:           a.model,
		MaxOutputTokens: openai.Int(400),
		Instructions:    openai.String(supportInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: buildInput(message, transcript),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "ChatReply",
					Schema:      chatReplySchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Supportive chat reply"),
					Type:        "json_schema",
				},
			},
		},
	}
	resp, err := a.callWithRetry(ctx, params)
	if err != nil {
		return "", err
	}
	var out chatReply
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return "", fmt.Errorf("decode chat reply: %w", err)
	}
	reply := strings.TrimSpace(out.Reply)
	if reply == "" {
		return "", errors.New("openai agent: empty reply")
	}
	return reply, nil
}

// buildInput maps the transcript onto conversation items. The transcript
// already ends with the latest user message; message is used only when it doesn't.
func buildInput(message string, transcript []models.ChatMessage) []responses.ResponseInputItemUnionParam {
	if len(transcript) > maxTranscriptMessages {
		transcript = transcript[len(transcript)-maxTranscriptMessages:]
	}
	items := make([]responses.ResponseInputItemUnionParam, 0, len(transcript)+1)
	for _, m := range transcript {
		role := responses.EasyInputMessageRoleUser
		if m.Type == models.RoleAgent {
			role = responses.EasyInputMessageRoleAssistant
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(m.Text, role))
	}
	if n := len(transcript); n == 0 || transcript[n-1].Type != models.RoleUser || transcript[n-1].Text != message {
		items = append(items, responses.ResponseInputItemParamOfMessage(message, responses.EasyInputMessageRoleUser))
	}
	return items
}

func (a *OpenAI) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := a.client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) || attempt >= len(a.retryWaits) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.retryWaits[attempt]):
		}
	}
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// decodeModelJSON accepts the model output as-is or extracts the first
// top-level JSON object from it.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON object in model output (len=%d)", len(s))
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}

func generateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	b, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	strictObjects(m)
	return m
}

// strictObjects marks every object closed and all its properties required,
// which strict structured output demands.
func strictObjects(schema map[string]any) {
	if t, _ := schema["type"].(string); t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok && len(props) > 0 {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			schema["required"] = required
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				strictObjects(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		strictObjects(items)
	}
}
