// Package entry turns free-text submissions into record items.
//
// Every parser returns a Result that is either an accepted item or a rejection with a
// human-readable reason. Parsers never modify a record; Appliers do, and only on acceptance.
package entry

import (
	"strings"

	"github.com/spigell/cvbuilder/internal/catalog"
	"github.com/spigell/cvbuilder/internal/cv"
)

// Result is the outcome of parsing one submission.
type Result[T any] struct {
	item     T
	reason   string
	accepted bool
}

// Accepted wraps a successfully parsed item.
func Accepted[T any](item T) Result[T] {
	return Result[T]{item: item, accepted: true}
}

// Rejected reports why a submission could not be parsed.
func Rejected[T any](reason string) Result[T] {
	return Result[T]{reason: reason}
}

// Item returns the parsed item and whether the submission was accepted.
func (r Result[T]) Item() (T, bool) { return r.item, r.accepted }

// Reason returns the rejection reason. It is empty for accepted results.
func (r Result[T]) Reason() string { return r.reason }

// Outcome is the result of applying one submission to a record.
type Outcome struct {
	Accepted bool
	Reason   string
}

// Apply parses text and adds the result to rec when it is accepted.
type Apply func(rec *cv.Record, text string) Outcome

// Appliers maps every repeating catalog section to its parser.
func Appliers() map[string]Apply {
	return map[string]Apply{
		catalog.WorkExperience: appendTo(ParseWork, func(r *cv.Record, w cv.WorkItem) {
			r.WorkExperience = append(r.WorkExperience, w)
		}),
		catalog.Education: appendTo(ParseEducation, func(r *cv.Record, e cv.EducationItem) {
			r.Education = append(r.Education, e)
		}),
		catalog.Skills: appendTo(ParseSkills, func(r *cv.Record, groups []cv.SkillGroup) {
			r.Skills = MergeSkills(r.Skills, groups)
		}),
		catalog.Projects: appendTo(ParseProject, func(r *cv.Record, p cv.Project) {
			r.Projects = append(r.Projects, p)
		}),
		catalog.Languages: appendTo(ParseLanguage, func(r *cv.Record, l cv.Language) {
			r.Languages = append(r.Languages, l)
		}),
		catalog.Certifications: appendTo(ParseCertification, func(r *cv.Record, c cv.Certification) {
			r.Certifications = append(r.Certifications, c)
		}),
		catalog.Awards: appendTo(ParseAward, func(r *cv.Record, a cv.Award) {
			r.Awards = append(r.Awards, a)
		}),
	}
}

func appendTo[T any](parse func(string) Result[T], add func(*cv.Record, T)) Apply {
	return func(rec *cv.Record, text string) Outcome {
		res := parse(text)
		item, ok := res.Item()
		if !ok {
			return Outcome{Reason: res.Reason()}
		}
		add(rec, item)
		return Outcome{Accepted: true}
	}
}

// lines splits text into trimmed, non-empty lines.
func lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
