package entry

import (
	"strings"

	"github.com/spigell/cvbuilder/internal/cv"
)

const (
	workFormat      = "the first line must look like `Title at Company (Start Date - End Date)`"
	educationFormat = "the first line must look like `Degree from Institution (Graduation Date)`"
	bullet          = "-"
)

// ParseWork parses one job:
//
//	Title at Company (Start - End)
//	City, Country
//	- bullet
//
// The location line is optional and recognized only by not starting with a dash.
func ParseWork(text string) Result[cv.WorkItem] {
	ls := lines(text)
	if len(ls) == 0 {
		return Rejected[cv.WorkItem]("the entry is empty")
	}

	title, rest, ok := strings.Cut(ls[0], " at ")
	if !ok {
		return Rejected[cv.WorkItem](workFormat)
	}
	company, dates, ok := strings.Cut(rest, "(")
	if !ok {
		return Rejected[cv.WorkItem]("dates in parentheses are missing: " + workFormat)
	}

	item := cv.WorkItem{
		JobTitle: strings.TrimSpace(title),
		Company:  strings.TrimSpace(company),
	}
	if item.JobTitle == "" || item.Company == "" {
		return Rejected[cv.WorkItem]("both the job title and the company are required")
	}

	parts := strings.Split(insideParens(dates), " - ")
	switch len(parts) {
	case 1:
		item.StartDate = strings.TrimSpace(parts[0])
	case 2:
		item.StartDate = strings.TrimSpace(parts[0])
		item.EndDate = strings.TrimSpace(parts[1])
	default:
		return Rejected[cv.WorkItem]("use a single ` - ` between the start and end dates")
	}
	if item.StartDate == "" {
		return Rejected[cv.WorkItem]("the start date is missing")
	}

	body := ls[1:]
	if len(body) > 0 && !strings.HasPrefix(body[0], bullet) {
		item.Location = body[0]
		body = body[1:]
	}
	for _, l := range body {
		if b := strings.TrimSpace(strings.TrimPrefix(l, bullet)); b != "" {
			item.Description = append(item.Description, b)
		}
	}

	return Accepted(item)
}

// ParseEducation parses one degree:
//
//	Degree from Institution (Graduation Date)
//	City, Country
//	details...
//
// The second line is taken as a location when it does not start with a dash and mentions
// neither "(" nor the word "from". This can misread a details line as a location.
func ParseEducation(text string) Result[cv.EducationItem] {
	ls := lines(text)
	if len(ls) == 0 {
		return Rejected[cv.EducationItem]("the entry is empty")
	}

	degree, rest, ok := strings.Cut(ls[0], " from ")
	if !ok {
		return Rejected[cv.EducationItem](educationFormat)
	}
	institution, date, ok := strings.Cut(rest, "(")
	if !ok {
		return Rejected[cv.EducationItem]("the graduation date in parentheses is missing: " + educationFormat)
	}

	item := cv.EducationItem{
		Degree:         strings.TrimSpace(degree),
		Institution:    strings.TrimSpace(institution),
		GraduationDate: insideParens(date),
	}
	if item.Degree == "" || item.Institution == "" {
		return Rejected[cv.EducationItem]("both the degree and the institution are required")
	}

	body := ls[1:]
	if len(body) > 0 && looksLikeLocation(body[0]) {
		item.Location = body[0]
		body = body[1:]
	}
	item.Details = strings.Join(body, "\n")

	return Accepted(item)
}

func looksLikeLocation(line string) bool {
	if strings.HasPrefix(line, bullet) || strings.Contains(line, "(") {
		return false
	}
	for _, word := range strings.Fields(line) {
		if strings.EqualFold(strings.Trim(word, ",.;"), "from") {
			return false
		}
	}
	return true
}

// insideParens returns the text up to the closing parenthesis, trimmed.
func insideParens(s string) string {
	if i := strings.Index(s, ")"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
