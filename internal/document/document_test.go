package document

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func withTool(e *Extractor) *Extractor {
	e.lookPath = func(string) (string, error) { return "/usr/bin/pdftotext", nil }
	return e
}

func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Jane </w:t></w:r><w:r><w:t>Doe</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Engineer</w:t><w:tab/><w:t>Acme</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Skills: Go</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body>
</w:document>`

func TestSupports(t *testing.T) {
	e := New()
	assert.True(t, e.Supports(MIMEPDF))
	assert.True(t, e.Supports(MIMEDOCX))
	assert.True(t, e.Supports("text/plain; charset=utf-8"))
	assert.True(t, e.Supports("APPLICATION/PDF"))
	assert.False(t, e.Supports("image/png"))
	assert.False(t, e.Supports(""))
}

func TestExtractPlainText(t *testing.T) {
	text, err := New().Extract(context.Background(), MIMEText, []byte("  Jane Doe \r\n\r\n\r\n\r\nEngineer  \n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n\nEngineer", text)

	_, err = New().Extract(context.Background(), MIMEText, []byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   documentXML,
	})

	text, err := New().Extract(context.Background(), MIMEDOCX, data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n\nEngineer\tAcme\nSkills: Go", text)
}

func TestExtractDOCXInvalid(t *testing.T) {
	_, err := New().Extract(context.Background(), MIMEDOCX, []byte("not a zip"))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	missing := buildDOCX(t, map[string]string{"word/styles.xml": "<styles/>"})
	_, err = New().Extract(context.Background(), MIMEDOCX, missing)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestExtractDOCXBodyLimit(t *testing.T) {
	limit := maxDOCXBodyBytes
	maxDOCXBodyBytes = 64
	t.Cleanup(func() { maxDOCXBodyBytes = limit })

	data := buildDOCX(t, map[string]string{"word/document.xml": documentXML})
	_, err := New().Extract(context.Background(), MIMEDOCX, data)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestExtractPDFWithRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("Jane Doe\f\nEngineer\n")}
	e := withTool(NewWithRunner(runner))

	text, err := e.Extract(context.Background(), MIMEPDF, []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n\nEngineer", text)
	assert.Equal(t, "pdftotext", runner.name)
	require.Len(t, runner.args, 5)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8"}, runner.args[:3])
	assert.Equal(t, "-", runner.args[4])
}

func TestExtractPDFErrors(t *testing.T) {
	runner := &mockRunner{err: errors.New("crashed")}
	e := withTool(NewWithRunner(runner))

	_, err := e.Extract(context.Background(), MIMEPDF, []byte("%PDF-1.4 fake"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")

	_, err = e.Extract(context.Background(), MIMEPDF, []byte("hello"))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	missing := NewWithRunner(runner)
	missing.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	_, err = missing.Extract(context.Background(), MIMEPDF, []byte("%PDF-1.4 fake"))
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := New().Extract(context.Background(), "image/jpeg", []byte{0x1})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, MIMEPDF, DetectMIME("cv.PDF"))
	assert.Equal(t, MIMEDOCX, DetectMIME("/tmp/jane.docx"))
	assert.Equal(t, MIMEText, DetectMIME("notes.txt"))
	assert.Empty(t, DetectMIME("photo.png"))
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}
