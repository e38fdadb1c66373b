package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// maxDOCXBodyBytes bounds the uncompressed size of the document body.
var maxDOCXBodyBytes int64 = 64 << 20

// extractDOCX walks word/document.xml and emits one line per paragraph,
// including paragraphs nested in tables.
func extractDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	for _, file := range reader.File {
		if file.Name != docxBody {
			continue
		}
		if file.UncompressedSize64 > uint64(maxDOCXBodyBytes) {
			return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidDocument, docxBody, maxDOCXBodyBytes)
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		defer rc.Close()
		return parseDocumentXML(io.LimitReader(rc, maxDOCXBodyBytes))
	}

	return "", fmt.Errorf("%w: %s is missing", ErrInvalidDocument, docxBody)
}

func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br", "cr":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}
