package entry

import (
	"strings"

	"github.com/spigell/cvbuilder/internal/cv"
)

// Canonical field names produced by the key:value parsers.
const (
	keyName         = "name"
	keyDescription  = "description"
	keyTechnologies = "technologies"
	keyURL          = "url"
	keyDuration     = "duration"
	keyIssuer       = "issuing_organization"
	keyIssueDate    = "issue_date"
	keyCredential   = "credential_id"
	keyOrganization = "organization"
	keyDate         = "date"
)

type alias struct {
	field string
	keys  []string
}

func synonyms(aliases ...alias) map[string]string {
	out := make(map[string]string)
	for _, a := range aliases {
		for _, k := range a.keys {
			out[k] = a.field
		}
	}
	return out
}

var projectKeys = synonyms(
	alias{keyName, []string{"name", "project", "project name", "title"}},
	alias{keyDescription, []string{"description", "desc", "about"}},
	alias{keyTechnologies, []string{"technologies", "technology", "tech", "tech stack", "stack", "tools"}},
	alias{keyURL, []string{"url", "link", "website"}},
	alias{keyDuration, []string{"duration", "dates", "period"}},
)

var certificationKeys = synonyms(
	alias{keyName, []string{"name", "certification", "certificate", "title"}},
	alias{keyIssuer, []string{"issuing organization", "issuing org", "issuer", "organization", "org", "issued by"}},
	alias{keyIssueDate, []string{"issue date", "date", "issued"}},
	alias{keyCredential, []string{"credential id", "credential", "id", "url", "link"}},
)

var awardKeys = synonyms(
	alias{keyName, []string{"name", "award", "title"}},
	alias{keyOrganization, []string{"organization", "org", "awarded by", "issuer"}},
	alias{keyDate, []string{"date", "year"}},
	alias{keyDescription, []string{"description", "desc", "details"}},
)

// ParseProject parses `Key: value` lines into a project. The name is mandatory.
func ParseProject(text string) Result[cv.Project] {
	fields := parseLabeled(text, projectKeys)
	p := cv.Project{
		Name:         fields[keyName],
		Description:  fields[keyDescription],
		Technologies: splitList(fields[keyTechnologies]),
		Duration:     fields[keyDuration],
	}
	if p.Name == "" {
		return Rejected[cv.Project]("a project needs a `Name:` line")
	}
	if raw := fields[keyURL]; raw != "" {
		p.URL = cv.NormalizeURL(raw)
		if err := cv.CheckURL(p.URL); err != nil {
			return Rejected[cv.Project]("the project URL does not look valid")
		}
	}
	return Accepted(p)
}

// ParseCertification parses `Key: value` lines into a certification. The name is mandatory.
func ParseCertification(text string) Result[cv.Certification] {
	fields := parseLabeled(text, certificationKeys)
	c := cv.Certification{
		Name:                fields[keyName],
		IssuingOrganization: fields[keyIssuer],
		IssueDate:           fields[keyIssueDate],
		CredentialID:        fields[keyCredential],
	}
	if c.Name == "" {
		return Rejected[cv.Certification]("a certification needs a `Name:` line")
	}
	return Accepted(c)
}

// ParseAward parses `Key: value` lines into an award. The name is mandatory.
func ParseAward(text string) Result[cv.Award] {
	fields := parseLabeled(text, awardKeys)
	a := cv.Award{
		Name:         fields[keyName],
		Organization: fields[keyOrganization],
		Date:         fields[keyDate],
		Description:  fields[keyDescription],
	}
	if a.Name == "" {
		return Rejected[cv.Award]("an award needs a `Name:` line")
	}
	return Accepted(a)
}

// parseLabeled splits each line once on ':' and keeps values for known keys.
// Unknown keys are ignored; the first value for a field wins.
func parseLabeled(text string, keys map[string]string) map[string]string {
	out := make(map[string]string)
	for _, line := range lines(text) {
		rawKey, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field, known := keys[normalizeKey(rawKey)]
		if !known {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, seen := out[field]; !seen {
			out[field] = value
		}
	}
	return out
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	return strings.Join(strings.Fields(key), " ")
}
