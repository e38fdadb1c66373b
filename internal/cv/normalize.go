package cv

import (
	"slices"
	"strings"
)

// Step describes the result of executing a normalization step.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

// normalizer is a single deterministic pass over a record.
type normalizer interface {
	Name() string
	Apply(r *Record) Step
}

var pipeline = []normalizer{
	trimFields{},
	dropIncomplete{},
	mergeGeneral{},
	collapseEmpty{},
}

func newStep(name string, initial int, r *Record) Step {
	left := r.ItemCount()
	return Step{Name: name, Initial: initial, Dropped: initial - left, Left: left}
}

type trimFields struct{}

func (trimFields) Name() string { return "trim_fields" }

func (s trimFields) Apply(r *Record) Step {
	initial := r.ItemCount()

	r.Summary = strings.TrimSpace(r.Summary)
	if c := r.Contact; c != nil {
		trimAll(&c.FullName, &c.Email, &c.Phone, &c.LinkedInURL, &c.PortfolioURL, &c.Address)
	}
	for i := range r.WorkExperience {
		w := &r.WorkExperience[i]
		trimAll(&w.JobTitle, &w.Company, &w.Location, &w.StartDate, &w.EndDate)
		w.Description = trimList(w.Description)
	}
	for i := range r.Education {
		e := &r.Education[i]
		trimAll(&e.Degree, &e.Institution, &e.Location, &e.GraduationDate, &e.Details)
	}
	for i := range r.Skills {
		g := &r.Skills[i]
		trimAll(&g.Category)
		g.SkillsList = trimList(g.SkillsList)
	}
	for i := range r.Projects {
		p := &r.Projects[i]
		trimAll(&p.Name, &p.Description, &p.URL, &p.Duration)
		p.Technologies = trimList(p.Technologies)
	}
	for i := range r.Languages {
		trimAll(&r.Languages[i].Language, &r.Languages[i].Proficiency)
	}
	for i := range r.Certifications {
		c := &r.Certifications[i]
		trimAll(&c.Name, &c.IssuingOrganization, &c.IssueDate, &c.CredentialID)
	}
	for i := range r.Awards {
		a := &r.Awards[i]
		trimAll(&a.Name, &a.Organization, &a.Date, &a.Description)
	}

	return newStep(s.Name(), initial, r)
}

// dropIncomplete removes items that miss their mandatory fields or carry no data at all.
type dropIncomplete struct{}

func (dropIncomplete) Name() string { return "drop_incomplete" }

func (s dropIncomplete) Apply(r *Record) Step {
	initial := r.ItemCount()

	r.WorkExperience = slices.DeleteFunc(r.WorkExperience, func(w WorkItem) bool {
		return w.JobTitle == "" && w.Company == "" && w.Location == "" &&
			w.StartDate == "" && w.EndDate == "" && len(w.Description) == 0
	})
	r.Education = slices.DeleteFunc(r.Education, func(e EducationItem) bool {
		return e == EducationItem{}
	})
	r.Skills = slices.DeleteFunc(r.Skills, func(g SkillGroup) bool { return len(g.SkillsList) == 0 })
	r.Projects = slices.DeleteFunc(r.Projects, func(p Project) bool { return p.Name == "" })
	r.Languages = slices.DeleteFunc(r.Languages, func(l Language) bool {
		return l.Language == "" || l.Proficiency == ""
	})
	r.Certifications = slices.DeleteFunc(r.Certifications, func(c Certification) bool { return c.Name == "" })
	r.Awards = slices.DeleteFunc(r.Awards, func(a Award) bool { return a.Name == "" })

	return newStep(s.Name(), initial, r)
}

// mergeGeneral folds every General skill group into the first one.
// User-declared categories are left as they are.
type mergeGeneral struct{}

func (mergeGeneral) Name() string { return "merge_general_skills" }

func (s mergeGeneral) Apply(r *Record) Step {
	initial := r.ItemCount()

	merged := make([]SkillGroup, 0, len(r.Skills))
	general := -1
	for _, group := range r.Skills {
		if !IsGeneral(group.Category) {
			merged = append(merged, group)
			continue
		}
		if general < 0 {
			general = len(merged)
			merged = append(merged, SkillGroup{Category: General})
		}
		merged[general].SkillsList = AppendUnique(merged[general].SkillsList, group.SkillsList...)
	}
	r.Skills = merged

	return newStep(s.Name(), initial, r)
}

// collapseEmpty turns empty containers into absent values.
type collapseEmpty struct{}

func (collapseEmpty) Name() string { return "collapse_empty" }

func (s collapseEmpty) Apply(r *Record) Step {
	initial := r.ItemCount()

	if r.Contact.empty() {
		r.Contact = nil
	}
	for i := range r.WorkExperience {
		r.WorkExperience[i].Description = nilIfEmpty(r.WorkExperience[i].Description)
	}
	for i := range r.Projects {
		r.Projects[i].Technologies = nilIfEmpty(r.Projects[i].Technologies)
	}
	r.WorkExperience = nilIfEmpty(r.WorkExperience)
	r.Education = nilIfEmpty(r.Education)
	r.Skills = nilIfEmpty(r.Skills)
	r.Projects = nilIfEmpty(r.Projects)
	r.Languages = nilIfEmpty(r.Languages)
	r.Certifications = nilIfEmpty(r.Certifications)
	r.Awards = nilIfEmpty(r.Awards)

	return newStep(s.Name(), initial, r)
}

// AppendUnique appends values missing from list, comparing case-insensitively.
// The first spelling seen wins.
func AppendUnique(list []string, values ...string) []string {
	seen := make(map[string]struct{}, len(list)+len(values))
	out := make([]string, 0, len(list)+len(values))
	for _, v := range slices.Concat(list, values) {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

func trimList(list []string) []string {
	out := list[:0]
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nilIfEmpty[T any](list []T) []T {
	if len(list) == 0 {
		return nil
	}
	return list
}
