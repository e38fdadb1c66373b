package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cvbuilder/internal/cv"
)

func sampleRecord() *cv.Record {
	return &cv.Record{
		Contact: &cv.Contact{
			FullName:    "Jane <Doe>",
			Email:       "jane@example.com",
			LinkedInURL: "https://linkedin.com/in/jane",
		},
		Summary: "Backend engineer",
		WorkExperience: []cv.WorkItem{{
			JobTitle:    "Engineer",
			Company:     "Acme",
			StartDate:   "2020",
			EndDate:     "Present",
			Description: []string{"Built the billing service"},
		}},
		Skills:    []cv.SkillGroup{{Category: "General", SkillsList: []string{"Go", "SQL"}}},
		Languages: []cv.Language{{Language: "English", Proficiency: "Fluent"}},
	}
}

func TestTemplatesCatalog(t *testing.T) {
	templates := Templates()
	require.Len(t, templates, 3)
	assert.Equal(t, Modern, templates[0].Key)
	assert.Equal(t, "Classic Professional", templates[1].Name)
	assert.Equal(t, Creative, templates[2].Key)

	templates[0].Name = "changed"
	assert.Equal(t, "Modern Minimalist", Templates()[0].Name)

	info, ok := Lookup("creative")
	assert.True(t, ok)
	assert.Equal(t, "Creative Tech", info.Name)

	_, ok = Lookup("fancy")
	assert.False(t, ok)
}

func TestRenderHTMLAllTemplates(t *testing.T) {
	for _, info := range Templates() {
		t.Run(string(info.Key), func(t *testing.T) {
			html, err := RenderHTML(sampleRecord(), info.Key)
			require.NoError(t, err)

			assert.Contains(t, html, "Jane &lt;Doe&gt;")
			assert.Contains(t, html, "Built the billing service")
			assert.Contains(t, html, "Go, SQL")
			assert.Contains(t, html, "English - Fluent")
			assert.Contains(t, html, `href="https://linkedin.com/in/jane"`)
			assert.NotContains(t, html, "Projects")
		})
	}
}

func TestRenderHTMLEmptyRecord(t *testing.T) {
	html, err := RenderHTML(nil, Classic)
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "<title>CV</title>"))
}

func TestRenderHTMLUnknownTemplate(t *testing.T) {
	_, err := RenderHTML(sampleRecord(), Template("fancy"))
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "CVBuilder_Jane_Doe.pdf", FileName(sampleRecord()))
	assert.Equal(t, "CVBuilder_Анна_Смирнова.pdf", FileName(&cv.Record{Contact: &cv.Contact{FullName: " Анна Смирнова "}}))
	assert.Equal(t, "CVBuilder_cv.pdf", FileName(&cv.Record{}))
	assert.Equal(t, "CVBuilder_cv.pdf", FileName(nil))
}
