package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client is an abstraction over LLM providers.
// Implementations must be safe for concurrent use by many audits.
type Client interface {
	// StartConversation opens a tool-calling session bound to one audit
	StartConversation(ctx context.Context, opts ConversationOptions) (Conversation, error)
	// GetModel returns the provider model name used for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// StartConversation opens a chat session with the declared tools enabled.
// Each conversation owns its own GenerativeModel, so sessions never share mutable state.
func (c *GeminiClient) StartConversation(_ context.Context, opts ConversationOptions) (Conversation, error) {
	modelName := c.config.GetModel(opts.Tier)
	if modelName == "" {
		return nil, &ProviderError{Kind: KindInvalidRequest, Message: fmt.Sprintf("no model configured for tier %s", opts.Tier)}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(c.config.Temperature)
	if opts.SystemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(opts.SystemInstruction))
	}
	if len(opts.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(opts.Tools)}}
	}

	return &geminiConversation{
		model:  model,
		chat:   model.StartChat(),
		output: opts.Output,
	}, nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

type geminiConversation struct {
	model  *genai.GenerativeModel
	chat   *genai.ChatSession
	output OutputSchema
}

func (s *geminiConversation) Send(ctx context.Context, msg Message) (*Reply, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	resp, err := s.chat.SendMessage(ctx, toParts(msg)...)
	if err != nil {
		return nil, Classify(err)
	}

	return replyFromResponse(resp)
}

// Finalize switches the session into JSON mode. Gemini rejects function calling
// combined with a JSON response type, so tools are removed for the final turn.
func (s *geminiConversation) Finalize(ctx context.Context, msg Message) (string, error) {
	if err := validateMessage(msg); err != nil {
		return "", err
	}

	s.model.Tools = nil
	s.model.ToolConfig = nil
	s.model.ResponseMIMEType = "application/json"
	if !s.output.IsZero() {
		s.model.ResponseSchema = toGenaiSchema(s.output)
	}

	resp, err := s.chat.SendMessage(ctx, toParts(msg)...)
	if err != nil {
		return "", Classify(err)
	}

	reply, err := replyFromResponse(resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply.Text) == "" {
		return "", &ProviderError{Kind: KindOther, Message: "no text parts in response"}
	}

	return CleanJSONBlock(reply.Text), nil
}

func toParts(msg Message) []genai.Part {
	parts := make([]genai.Part, 0, 1+len(msg.Documents)+len(msg.Responses))
	for _, r := range msg.Responses {
		parts = append(parts, genai.FunctionResponse{Name: r.Name, Response: r.Response})
	}
	for _, doc := range msg.Documents {
		parts = append(parts, genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data})
	}
	if strings.TrimSpace(msg.Text) != "" {
		parts = append(parts, genai.Text(msg.Text))
	}
	return parts
}

// replyFromResponse extracts text and function calls from a Gemini API response
func replyFromResponse(resp *genai.GenerateContentResponse) (*Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &ProviderError{Kind: KindOther, Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &ProviderError{Kind: KindOther, Message: "no content in response"}
	}

	reply := &Reply{}
	var texts []string
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			texts = append(texts, string(p))
		case genai.FunctionCall:
			reply.Calls = append(reply.Calls, FunctionCall{Name: p.Name, Args: p.Args})
		case *genai.FunctionCall:
			reply.Calls = append(reply.Calls, FunctionCall{Name: p.Name, Args: p.Args})
		}
	}
	reply.Text = strings.Join(texts, "")

	return reply, nil
}

func toFunctionDeclarations(tools []ToolDeclaration) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		params := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(tool.Params)),
		}
		for _, p := range tool.Params {
			params.Properties[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  params,
		})
	}
	return decls
}

func toGenaiSchema(schema OutputSchema) *genai.Schema {
	out := &genai.Schema{
		Type:        genai.TypeObject,
		Description: schema.Description,
		Properties:  make(map[string]*genai.Schema, len(schema.Fields)),
	}
	for _, f := range schema.Fields {
		var fs *genai.Schema
		switch f.Type {
		case FieldInteger:
			fs = &genai.Schema{Type: genai.TypeInteger}
		case FieldStringArray:
			fs = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
		default:
			fs = &genai.Schema{Type: genai.TypeString}
		}
		fs.Description = f.Description
		out.Properties[f.Name] = fs
		if f.Required {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}
