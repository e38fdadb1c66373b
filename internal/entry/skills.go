package entry

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spigell/cvbuilder/internal/cv"
)

// ParseLanguage parses `Language - Proficiency`.
func ParseLanguage(text string) Result[cv.Language] {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "\n") {
		return Rejected[cv.Language]("send one language per message")
	}
	language, proficiency, ok := strings.Cut(text, "-")
	if !ok {
		return Rejected[cv.Language]("use `Language - Proficiency`, e.g. Spanish - Fluent")
	}
	item := cv.Language{
		Language:    strings.TrimSpace(language),
		Proficiency: strings.TrimSpace(proficiency),
	}
	if item.Language == "" || item.Proficiency == "" {
		return Rejected[cv.Language]("both the language and the proficiency are required")
	}
	return Accepted(item)
}

// ParseSkills parses one submission of skills. Every line is either
// `Category: a, b` or a bare comma list that goes to the General category.
func ParseSkills(text string) Result[[]cv.SkillGroup] {
	var groups []cv.SkillGroup
	for _, line := range lines(text) {
		category, list, categorized := strings.Cut(line, ":")
		if !categorized {
			groups = append(groups, cv.SkillGroup{Category: cv.General, SkillsList: splitList(line)})
			continue
		}

		category = strings.TrimSpace(category)
		skills := splitList(list)
		if category == "" {
			return Rejected[[]cv.SkillGroup](fmt.Sprintf("the line %q has no category before the colon", line))
		}
		if len(skills) == 0 {
			return Rejected[[]cv.SkillGroup](fmt.Sprintf("the category %q has no skills", category))
		}
		groups = append(groups, cv.SkillGroup{Category: category, SkillsList: skills})
	}

	groups = slices.DeleteFunc(groups, func(g cv.SkillGroup) bool { return len(g.SkillsList) == 0 })
	if len(groups) == 0 {
		return Rejected[[]cv.SkillGroup]("no skills found, separate them with commas")
	}
	return Accepted(groups)
}

// MergeSkills adds incoming groups to existing ones without modifying either.
// General groups extend the existing General bucket with case-insensitive dedupe;
// other categories are appended as separate groups.
func MergeSkills(existing, incoming []cv.SkillGroup) []cv.SkillGroup {
	out := make([]cv.SkillGroup, 0, len(existing)+len(incoming))
	for _, g := range existing {
		out = append(out, cv.SkillGroup{Category: g.Category, SkillsList: slices.Clone(g.SkillsList)})
	}

	for _, g := range incoming {
		if !cv.IsGeneral(g.Category) {
			out = append(out, cv.SkillGroup{Category: g.Category, SkillsList: slices.Clone(g.SkillsList)})
			continue
		}
		idx := slices.IndexFunc(out, func(o cv.SkillGroup) bool { return cv.IsGeneral(o.Category) })
		if idx < 0 {
			out = append(out, cv.SkillGroup{Category: cv.General, SkillsList: cv.AppendUnique(nil, g.SkillsList...)})
			continue
		}
		out[idx].Category = cv.General
		out[idx].SkillsList = cv.AppendUnique(out[idx].SkillsList, g.SkillsList...)
	}
	return out
}
