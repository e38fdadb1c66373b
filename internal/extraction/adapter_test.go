package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	calls      int
	lastPrompt string
	deadline   bool
	block      bool
}

func (s *stubGenerator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	_, s.deadline = ctx.Deadline()
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestExtractEmptyTextSkipsService(t *testing.T) {
	stub := &stubGenerator{response: `{}`}
	adapter := NewAdapter(stub, zap.NewNop(), 0, 0)

	for _, text := range []string{"", "   \n\t "} {
		rec, err := adapter.Extract(context.Background(), text)
		if !errors.Is(err, ErrNoText) {
			t.Fatalf("expected ErrNoText for %q, got %v", text, err)
		}
		if rec != nil {
			t.Fatalf("expected no record, got %+v", rec)
		}
	}

	if stub.calls != 0 {
		t.Fatalf("expected the service not to be called, got %d calls", stub.calls)
	}
}

func TestExtractValidResponse(t *testing.T) {
	stub := &stubGenerator{response: "Here you go:\n```json\n" + `{
		"contact_info": {"full_name": " Jane Doe ", "email": "jane@example.com", "phone": null},
		"work_experience": [{"job_title": "Engineer", "company": "Acme", "description": ["Built X"]}],
		"skills": [{"category": "General", "skills_list": ["Go"]}, {"category": "general", "skills_list": ["go", "Rust"]}],
		"projects": [{"description": "no name"}]
	}` + "\n```"}
	adapter := NewAdapter(stub, zap.NewNop(), time.Minute, 0)

	rec, err := adapter.Extract(context.Background(), "Jane Doe, engineer at Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.FullName() != "Jane Doe" {
		t.Fatalf("unexpected name %q", rec.FullName())
	}
	if len(rec.WorkExperience) != 1 || rec.WorkExperience[0].Company != "Acme" {
		t.Fatalf("unexpected work experience: %+v", rec.WorkExperience)
	}
	if len(rec.Skills) != 1 || len(rec.Skills[0].SkillsList) != 2 {
		t.Fatalf("expected general skills merged, got %+v", rec.Skills)
	}
	if len(rec.Projects) != 0 {
		t.Fatalf("expected nameless project dropped, got %+v", rec.Projects)
	}

	if !stub.deadline {
		t.Fatalf("expected the service call to carry a deadline")
	}
	if !strings.Contains(stub.lastPrompt, "Jane Doe, engineer at Acme") {
		t.Fatalf("expected the document text in the prompt")
	}
}

func TestExtractFailureKinds(t *testing.T) {
	cases := []struct {
		name  string
		stub  *stubGenerator
		check func(error) bool
	}{
		{
			name:  "service error",
			stub:  &stubGenerator{err: errors.New("503 unavailable")},
			check: func(err error) bool { var e *ServiceError; return errors.As(err, &e) },
		},
		{
			name:  "not json",
			stub:  &stubGenerator{response: "I could not read this CV."},
			check: func(err error) bool { var e *ParseError; return errors.As(err, &e) },
		},
		{
			name:  "json array",
			stub:  &stubGenerator{response: `["summary", "x"]`},
			check: func(err error) bool { var e *ParseError; return errors.As(err, &e) },
		},
		{
			name:  "null",
			stub:  &stubGenerator{response: `null`},
			check: func(err error) bool { var e *ParseError; return errors.As(err, &e) },
		},
		{
			name:  "unknown field",
			stub:  &stubGenerator{response: `{"summary": "x", "hobbies": ["chess"]}`},
			check: func(err error) bool { var e *SchemaError; return errors.As(err, &e) },
		},
		{
			name:  "wrong type",
			stub:  &stubGenerator{response: `{"work_experience": {"job_title": "x"}}`},
			check: func(err error) bool { var e *SchemaError; return errors.As(err, &e) },
		},
		{
			name:  "invalid email",
			stub:  &stubGenerator{response: `{"contact_info": {"email": "jane at example"}}`},
			check: func(err error) bool { var e *SchemaError; return errors.As(err, &e) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter := NewAdapter(tc.stub, zap.NewNop(), time.Minute, 0)
			rec, err := adapter.Extract(context.Background(), "some cv text")
			if err == nil {
				t.Fatalf("expected error, got record %+v", rec)
			}
			if !tc.check(err) {
				t.Fatalf("unexpected error kind: %T %v", err, err)
			}
			if errors.Is(err, ErrNoText) {
				t.Fatalf("failure must be distinguishable from ErrNoText")
			}
			if tc.stub.calls != 1 {
				t.Fatalf("expected exactly one call without retries, got %d", tc.stub.calls)
			}
		})
	}
}

func TestExtractTimeout(t *testing.T) {
	stub := &stubGenerator{block: true}
	adapter := NewAdapter(stub, zap.NewNop(), 20*time.Millisecond, 0)

	_, err := adapter.Extract(context.Background(), "some cv text")
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestBuildPromptNamesEveryField(t *testing.T) {
	prompt, err := BuildPrompt("cv text {{SCHEMA}}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, field := range []string{
		"- contact_info.full_name (string)",
		"- contact_info.portfolio_url (string)",
		"- summary (string)",
		"- work_experience[].description (list of string)",
		"- education[].graduation_date (string)",
		"- skills[].skills_list (list of string)",
		"- projects[].technologies (list of string)",
		"- languages[].proficiency (string)",
		"- certifications[].issuing_organization (string)",
		"- awards[].organization (string)",
	} {
		if !strings.Contains(prompt, field) {
			t.Fatalf("expected prompt to name %q", field)
		}
	}

	if !strings.Contains(prompt, "cv text {{SCHEMA}}") {
		t.Fatalf("document text must be inserted verbatim")
	}
	if strings.Contains(prompt, "{{FIELDS}}") || strings.Contains(prompt, "{{CV_TEXT}}") {
		t.Fatalf("unexpanded placeholders left in prompt")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct{ in, want string }{
		{in: `{"a": 1}`, want: `{"a": 1}`},
		{in: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{in: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{in: `Sure! {"a": {"b": 2}} Hope it helps`, want: `{"a": {"b": 2}}`},
		{in: "no json here", want: "no json here"},
	}
	for _, tc := range cases {
		if got := extractJSON(tc.in); got != tc.want {
			t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
