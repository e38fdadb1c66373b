package gemini

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp  *genai.GenerateContentResponse
	err   error
	calls []modelCall
}

type modelCall struct {
	model    string
	prompt   string
	config   *genai.GenerateContentConfig
	contents int
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	call := modelCall{model: model, config: config, contents: len(contents)}
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		call.prompt = contents[0].Parts[0].Text
	}
	f.calls = append(f.calls, call)
	return f.resp, f.err
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGenerateJSONRequestsJSONOutput(t *testing.T) {
	models := &fakeModels{resp: textResponse(`{"summary":`, "", ` "x"}`)}
	g := newGenerator(models, "gemini-test", 0.2, zap.NewNop())

	output, err := g.GenerateJSON(context.Background(), "  extract this  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "{\"summary\":\n\"x\"}" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}
	call := models.calls[0]
	if call.model != "gemini-test" {
		t.Fatalf("unexpected model: %q", call.model)
	}
	if call.prompt != "extract this" {
		t.Fatalf("unexpected prompt: %q", call.prompt)
	}
	if call.config == nil || call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %+v", call.config)
	}
	if call.config.Temperature == nil || *call.config.Temperature != 0.2 {
		t.Fatalf("expected temperature 0.2, got %v", call.config.Temperature)
	}
}

func TestGeneratorDefaults(t *testing.T) {
	models := &fakeModels{resp: textResponse("{}")}
	g := newGenerator(models, "", -1, nil)

	output, err := g.GenerateJSON(context.Background(), "hi")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "{}" {
		t.Fatalf("unexpected output: %q", output)
	}
	if g.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", g.Model())
	}
	if models.calls[0].model != DefaultModel {
		t.Fatalf("expected request to use the default model, got %q", models.calls[0].model)
	}
	if got := *models.calls[0].config.Temperature; got != DefaultTemperature {
		t.Fatalf("expected default temperature, got %v", got)
	}
}

func TestGeneratorErrors(t *testing.T) {
	apiErr := errors.New("boom")
	cases := []struct {
		name   string
		models *fakeModels
		prompt string
		calls  int
	}{
		{name: "empty prompt", models: &fakeModels{resp: textResponse("x")}, prompt: "   ", calls: 0},
		{name: "api error", models: &fakeModels{err: apiErr}, prompt: "p", calls: 1},
		{name: "nil response", models: &fakeModels{}, prompt: "p", calls: 1},
		{name: "blank candidates", models: &fakeModels{resp: textResponse(" ", "")}, prompt: "p", calls: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGenerator(tc.models, "m", 0, zap.NewNop())
			if _, err := g.GenerateJSON(context.Background(), tc.prompt); err == nil {
				t.Fatal("expected error")
			}
			if len(tc.models.calls) != tc.calls {
				t.Fatalf("expected %d calls, got %d", tc.calls, len(tc.models.calls))
			}
		})
	}

	var nilGen *Generator
	if _, err := nilGen.GenerateJSON(context.Background(), "p"); err == nil {
		t.Fatal("expected error from nil generator")
	}
	if nilGen.Model() != "" {
		t.Fatal("expected empty model for nil generator")
	}
}

func TestGeneratorLogsProviderFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	g := newGenerator(&fakeModels{resp: textResponse("{}")}, "gemini-x", 0, zap.New(core))

	if _, err := g.GenerateJSON(context.Background(), "p"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["ai_provider"] != "gemini" || ctx["ai_model"] != "gemini-x" {
		t.Fatalf("unexpected fields: %+v", ctx)
	}
}
