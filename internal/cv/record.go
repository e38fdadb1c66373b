package cv

import (
	"encoding/json"
	"fmt"
	"strings"
)

// General is the category used for skills submitted without an explicit category.
const General = "General"

// Record is the full structured résumé collected for one user.
// Every field is optional; an absent value is the zero value and is omitted from JSON.
type Record struct {
	Contact        *Contact        `json:"contact_info,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	WorkExperience []WorkItem      `json:"work_experience,omitempty" validate:"dive"`
	Education      []EducationItem `json:"education,omitempty" validate:"dive"`
	Skills         []SkillGroup    `json:"skills,omitempty" validate:"dive"`
	Projects       []Project       `json:"projects,omitempty" validate:"dive"`
	Languages      []Language      `json:"languages,omitempty" validate:"dive"`
	Certifications []Certification `json:"certifications,omitempty" validate:"dive"`
	Awards         []Award         `json:"awards,omitempty" validate:"dive"`
}

type Contact struct {
	FullName     string `json:"full_name,omitempty"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string `json:"phone,omitempty"`
	LinkedInURL  string `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	PortfolioURL string `json:"portfolio_url,omitempty" validate:"omitempty,url"`
	Address      string `json:"address,omitempty"`
}

type WorkItem struct {
	JobTitle    string   `json:"job_title,omitempty"`
	Company     string   `json:"company,omitempty"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Description []string `json:"description,omitempty"`
}

type EducationItem struct {
	Degree         string `json:"degree,omitempty"`
	Institution    string `json:"institution,omitempty"`
	Location       string `json:"location,omitempty"`
	GraduationDate string `json:"graduation_date,omitempty"`
	Details        string `json:"details,omitempty"`
}

type SkillGroup struct {
	Category   string   `json:"category,omitempty"`
	SkillsList []string `json:"skills_list,omitempty" validate:"min=1"`
}

type Project struct {
	Name         string   `json:"name,omitempty" validate:"required"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty" validate:"omitempty,url"`
	Duration     string   `json:"duration,omitempty"`
}

type Language struct {
	Language    string `json:"language,omitempty" validate:"required"`
	Proficiency string `json:"proficiency,omitempty" validate:"required"`
}

type Certification struct {
	Name                string `json:"name,omitempty" validate:"required"`
	IssuingOrganization string `json:"issuing_organization,omitempty"`
	IssueDate           string `json:"issue_date,omitempty"`
	CredentialID        string `json:"credential_id,omitempty"`
}

type Award struct {
	Name         string `json:"name,omitempty" validate:"required"`
	Organization string `json:"organization,omitempty"`
	Date         string `json:"date,omitempty"`
	Description  string `json:"description,omitempty"`
}

// IsGeneral reports whether the category names the default skills bucket.
// An empty category counts as General.
func IsGeneral(category string) bool {
	category = strings.TrimSpace(category)
	return category == "" || strings.EqualFold(category, General)
}

// Canonical returns the canonical JSON form of the record.
func Canonical(rec *Record) ([]byte, error) {
	if rec == nil {
		rec = &Record{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() (*Record, error) {
	out := &Record{}
	if r == nil {
		return out, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return out, nil
}

// FullName returns the contact name or an empty string.
func (r *Record) FullName() string {
	if r == nil || r.Contact == nil {
		return ""
	}
	return r.Contact.FullName
}

// ItemCount returns the number of items across all repeating sections.
func (r *Record) ItemCount() int {
	if r == nil {
		return 0
	}
	return len(r.WorkExperience) + len(r.Education) + len(r.Skills) + len(r.Projects) +
		len(r.Languages) + len(r.Certifications) + len(r.Awards)
}

func (r *Record) contact() *Contact {
	if r.Contact == nil {
		r.Contact = &Contact{}
	}
	return r.Contact
}

func (c *Contact) empty() bool {
	return c == nil || *c == Contact{}
}
