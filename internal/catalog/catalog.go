// Package catalog holds the ordered list of sections the step-by-step flow asks about.
package catalog

import (
	"strings"

	"github.com/spigell/cvbuilder/internal/cv"
)

// Kind tells whether a section takes a single value or a list of item blocks.
type Kind int

const (
	KindScalar Kind = iota
	KindRepeating
)

func (k Kind) String() string {
	if k == KindRepeating {
		return "repeating"
	}
	return "scalar"
}

// Repeating section identifiers.
const (
	WorkExperience = "work_experience"
	Education      = "education"
	Skills         = "skills"
	Projects       = "projects"
	Languages      = "languages"
	Certifications = "certifications"
	Awards         = "awards"
)

const (
	sentinel = "DONE"
	skip     = "SKIP"
)

// Section is one catalog entry.
type Section struct {
	ID     string
	Kind   Kind
	Title  string
	Prompt string
	// Hint is the format help for repeating sections.
	Hint string
}

var sections = []Section{
	{ID: cv.FieldFullName, Kind: KindScalar, Title: "Full name", Prompt: "📝 Please enter your *full name*."},
	{ID: cv.FieldEmail, Kind: KindScalar, Title: "Email", Prompt: "📧 Please enter your *email address*."},
	{ID: cv.FieldPhone, Kind: KindScalar, Title: "Phone", Prompt: "📞 Please enter your *phone number*."},
	{ID: cv.FieldLinkedInURL, Kind: KindScalar, Title: "LinkedIn", Prompt: "🔗 Please enter your *LinkedIn profile URL*."},
	{ID: cv.FieldPortfolioURL, Kind: KindScalar, Title: "Portfolio", Prompt: "🌐 Please enter your *portfolio or personal website URL*."},
	{ID: cv.FieldAddress, Kind: KindScalar, Title: "Address", Prompt: "🏠 Please enter your *address* (city and country are enough)."},
	{ID: cv.FieldSummary, Kind: KindScalar, Title: "Summary", Prompt: "🧾 Please enter a short *professional summary*."},
	{
		ID: WorkExperience, Kind: KindRepeating, Title: "Work experience",
		Prompt: "💼 Let's add your *work experience*, one job per message.",
		Hint: "*Format for each job:*\n`Title` at `Company` (`Start Date` - `End Date`)\n" +
			"`City, Country` (optional)\n- Responsibility 1\n- Responsibility 2",
	},
	{
		ID: Education, Kind: KindRepeating, Title: "Education",
		Prompt: "🎓 Now your *education*, one degree per message.",
		Hint: "*Format for each degree:*\n`Degree` from `Institution` (`Graduation Date`)\n" +
			"`City, Country` (optional)\nOptional details on the following lines.",
	},
	{
		ID: Skills, Kind: KindRepeating, Title: "Skills",
		Prompt: "🛠 Tell me about your *skills*.",
		Hint: "Enter skills separated by commas (e.g. Python, Java, SQL).\n" +
			"Use one line per category if you like: `Tools: Docker, Git`.",
	},
	{
		ID: Projects, Kind: KindRepeating, Title: "Projects",
		Prompt: "🚀 Any *projects* you want to show? One project per message.",
		Hint:   "*Format:*\nName: ...\nDescription: ...\nTechnologies: Go, SQLite\nURL: ...\nDuration: ...",
	},
	{
		ID: Languages, Kind: KindRepeating, Title: "Languages",
		Prompt: "🗣 Which *languages* do you speak? One per message.",
		Hint:   "*Format:*\n`Language` - `Proficiency` (e.g. Spanish - Fluent)",
	},
	{
		ID: Certifications, Kind: KindRepeating, Title: "Certifications",
		Prompt: "📜 Add your *certifications*, one per message.",
		Hint:   "*Format:*\nName: ...\nIssuing Organization: ...\nIssue Date: ...\nCredential ID: ...",
	},
	{
		ID: Awards, Kind: KindRepeating, Title: "Awards",
		Prompt: "🏆 Finally, any *awards*? One per message.",
		Hint:   "*Format:*\nName: ...\nOrganization: ...\nDate: ...\nDescription: ...",
	},
}

// All returns a copy of the catalog in question order.
func All() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// Len returns the number of sections. A cursor equal to Len means collection is complete.
func Len() int { return len(sections) }

// At returns the section at index i.
func At(i int) (Section, bool) {
	if i < 0 || i >= len(sections) {
		return Section{}, false
	}
	return sections[i], true
}

// IsSentinel reports whether text terminates a repeating section.
func IsSentinel(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), sentinel)
}

// IsSkip reports whether text asks to leave a scalar field empty.
func IsSkip(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), skip)
}

// Sentinel returns the keyword that ends a repeating section.
func Sentinel() string { return sentinel }

// Skip returns the keyword that leaves a scalar field empty.
func Skip() string { return skip }
