// Package extraction turns free document text into a validated CV record through an LLM.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/cvbuilder/internal/cv"
	"github.com/spigell/cvbuilder/internal/logger"
)

// Generator produces a JSON answer for a prompt.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	DefaultTimeout      = 90 * time.Second
	defaultMaxLogLength = 200
)

// Adapter sends document text to the generator and accepts only fully valid records.
type Adapter struct {
	generator Generator
	timeout   time.Duration
	logger    *zap.Logger
	maxLogLen int
}

func NewAdapter(generator Generator, logger *zap.Logger, timeout time.Duration, maxLogLength int) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Extract returns a validated record built from text.
// Errors are ErrNoText, *ParseError, *SchemaError or *ServiceError.
func (a *Adapter) Extract(ctx context.Context, text string) (*cv.Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	if a.generator == nil {
		return nil, &ServiceError{Cause: errors.New("generator is not configured")}
	}

	prompt, err := BuildPrompt(text)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.logger.Debug("extraction request",
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
		zap.Duration("timeout", a.timeout),
	)

	started := time.Now()
	raw, err := a.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, &ServiceError{Cause: err}
	}

	a.logger.Debug("extraction response",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	rec, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	a.logger.Info("extraction succeeded",
		zap.Bool("has_contact", rec.Contact != nil),
		zap.Int("items", rec.ItemCount()),
	)
	return rec, nil
}

// BuildPrompt embeds the text, the record schema and the field list into the prompt template.
func BuildPrompt(text string) (string, error) {
	fields, err := describeFields(cv.Schema())
	if err != nil {
		return "", fmt.Errorf("describe record fields: %w", err)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{FIELDS}}", strings.Join(fields, "\n"))
	prompt = strings.ReplaceAll(prompt, "{{SCHEMA}}", strings.TrimSpace(cv.Schema()))
	// The document goes last so its content is never expanded as a placeholder.
	prompt = strings.ReplaceAll(prompt, "{{CV_TEXT}}", strings.TrimSpace(text))
	return prompt, nil
}

// ParseResponse strips wrapping around the JSON object and validates it strictly.
func ParseResponse(raw string) (*cv.Record, error) {
	cleaned := extractJSON(raw)

	var probe map[string]any
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil, &ParseError{Raw: raw, Cause: err}
	}
	if probe == nil {
		return nil, &ParseError{Raw: raw, Cause: errors.New("response is not a JSON object")}
	}

	if err := cv.CheckSchema([]byte(cleaned)); err != nil {
		return nil, &SchemaError{Cause: err}
	}

	var rec cv.Record
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, &SchemaError{Cause: err}
	}

	valid, err := cv.Validate(&rec)
	if err != nil {
		return nil, &SchemaError{Cause: err}
	}
	return valid, nil
}

// extractJSON removes code fences and any prose around the outermost JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

type schemaNode struct {
	Type        any                    `json:"type"`
	Description string                 `json:"description"`
	Properties  map[string]*schemaNode `json:"properties"`
	Items       *schemaNode            `json:"items"`
}

// describeFields lists every leaf field of the schema as "- path (type): description".
func describeFields(schema string) ([]string, error) {
	var root schemaNode
	if err := json.Unmarshal([]byte(schema), &root); err != nil {
		return nil, err
	}
	var out []string
	walkSchema(&root, "", &out)
	return out, nil
}

func walkSchema(node *schemaNode, path string, out *[]string) {
	switch {
	case node.Properties != nil:
		keys := make([]string, 0, len(node.Properties))
		for k := range node.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := k
			if path != "" {
				child = path + "." + k
			}
			walkSchema(node.Properties[k], child, out)
		}
	case node.Items != nil && node.Items.Properties != nil:
		walkSchema(node.Items, path+"[]", out)
	default:
		line := fmt.Sprintf("- %s (%s)", path, schemaType(node))
		if node.Description != "" {
			line += ": " + node.Description
		}
		*out = append(*out, line)
	}
}

func schemaType(node *schemaNode) string {
	var types []string
	switch t := node.Type.(type) {
	case string:
		types = []string{t}
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s != "null" {
				types = append(types, s)
			}
		}
	}
	kind := strings.Join(types, "|")
	if kind == "array" && node.Items != nil {
		return "list of " + schemaType(node.Items)
	}
	if kind == "" {
		return "any"
	}
	return kind
}
