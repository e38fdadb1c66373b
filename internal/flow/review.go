package flow

import (
	"fmt"
	"strings"

	"github.com/spigell/cvbuilder/internal/cv"
)

// maxReviewLength keeps the review under the 4096 character chat message limit.
const maxReviewLength = 4000

// FormatReview renders the record as a chat message for confirmation.
func FormatReview(rec *cv.Record) string {
	var b strings.Builder
	b.WriteString("📄 *Please review the extracted information:*\n\n")

	if rec == nil || (rec.Contact == nil && rec.Summary == "" && rec.ItemCount() == 0) {
		b.WriteString("(nothing collected yet)\n")
		return b.String()
	}

	if c := rec.Contact; c != nil {
		b.WriteString("*Contact Info:*\n")
		fmt.Fprintf(&b, "  Name: %s\n", orNA(c.FullName))
		fmt.Fprintf(&b, "  Email: %s\n", orNA(c.Email))
		fmt.Fprintf(&b, "  Phone: %s\n", orNA(c.Phone))
		fmt.Fprintf(&b, "  LinkedIn: %s\n", orNA(c.LinkedInURL))
		if c.PortfolioURL != "" {
			fmt.Fprintf(&b, "  Portfolio: %s\n", c.PortfolioURL)
		}
		if c.Address != "" {
			fmt.Fprintf(&b, "  Address: %s\n", c.Address)
		}
		b.WriteString("\n")
	}

	if rec.Summary != "" {
		fmt.Fprintf(&b, "*Summary:*\n%s\n\n", rec.Summary)
	}

	if len(rec.WorkExperience) > 0 {
		b.WriteString("*Work Experience:*\n")
		for i, job := range rec.WorkExperience {
			fmt.Fprintf(&b, "  *%d. %s* at %s\n", i+1, orNA(job.JobTitle), orNA(job.Company))
			fmt.Fprintf(&b, "      (%s - %s)\n", orNA(job.StartDate), orNA(job.EndDate))
			for _, line := range job.Description {
				fmt.Fprintf(&b, "      - %s\n", line)
			}
		}
		b.WriteString("\n")
	}

	if len(rec.Education) > 0 {
		b.WriteString("*Education:*\n")
		for i, edu := range rec.Education {
			fmt.Fprintf(&b, "  *%d. %s* from %s\n", i+1, orNA(edu.Degree), orNA(edu.Institution))
			fmt.Fprintf(&b, "      (Graduated: %s)\n", orNA(edu.GraduationDate))
		}
		b.WriteString("\n")
	}

	if len(rec.Skills) > 0 {
		b.WriteString("*Skills:*\n")
		for _, group := range rec.Skills {
			fmt.Fprintf(&b, "  - %s: %s\n", orNA(group.Category), strings.Join(group.SkillsList, ", "))
		}
		b.WriteString("\n")
	}

	if len(rec.Projects) > 0 {
		b.WriteString("*Projects:*\n")
		for i, p := range rec.Projects {
			fmt.Fprintf(&b, "  *%d. %s*", i+1, p.Name)
			if len(p.Technologies) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(p.Technologies, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(rec.Languages) > 0 {
		b.WriteString("*Languages:*\n")
		for _, l := range rec.Languages {
			fmt.Fprintf(&b, "  - %s: %s\n", l.Language, l.Proficiency)
		}
		b.WriteString("\n")
	}

	if len(rec.Certifications) > 0 {
		b.WriteString("*Certifications:*\n")
		for _, c := range rec.Certifications {
			writeNamed(&b, c.Name, c.IssuingOrganization, c.IssueDate)
		}
		b.WriteString("\n")
	}

	if len(rec.Awards) > 0 {
		b.WriteString("*Awards:*\n")
		for _, a := range rec.Awards {
			writeNamed(&b, a.Name, a.Organization, a.Date)
		}
		b.WriteString("\n")
	}

	return truncateReview(strings.TrimRight(b.String(), "\n"))
}

func writeNamed(b *strings.Builder, name, org, date string) {
	fmt.Fprintf(b, "  - %s", name)
	if org != "" {
		fmt.Fprintf(b, ", %s", org)
	}
	if date != "" {
		fmt.Fprintf(b, " (%s)", date)
	}
	b.WriteString("\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncateReview(s string) string {
	runes := []rune(s)
	if len(runes) <= maxReviewLength {
		return s
	}
	return string(runes[:maxReviewLength]) + "\n\n... (output truncated)"
}
