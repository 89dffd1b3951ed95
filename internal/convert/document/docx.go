package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Paragraph is one paragraph of a word-processing document: its plain
// text and the display name of its style ("Heading 1", "Normal", ...).
type Paragraph struct {
	Text  string
	Style string
}

// readParagraphs extracts the paragraphs of a DOCX file in document
// order. Style IDs from document.xml are resolved to display names via
// styles.xml so heading detection works on localized style IDs too.
func readParagraphs(data []byte) ([]Paragraph, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX ZIP: %w", err)
	}

	styles := parseStyles(zr)

	docData, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read document.xml: %w", err)
	}

	return parseDocumentXML(docData, styles)
}

// readZipFile reads one entry of a zip archive fully into memory.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("entry %s not found", name)
}

// parseStyles maps style IDs to display names from word/styles.xml.
// A missing or malformed styles part yields an empty map; paragraphs
// then fall back to their raw style IDs.
func parseStyles(zr *zip.Reader) map[string]string {
	styles := make(map[string]string)
	data, err := readZipFile(zr, "word/styles.xml")
	if err != nil {
		return styles
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	var currentStyleID string
	var inStyle bool
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "style":
				inStyle = true
				for _, attr := range t.Attr {
					if attr.Name.Local == "styleId" {
						currentStyleID = attr.Value
					}
				}
			case "name":
				if inStyle && currentStyleID != "" {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							styles[currentStyleID] = attr.Value
						}
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" {
				inStyle = false
				currentStyleID = ""
			}
		}
	}
	return styles
}

// parseDocumentXML walks word/document.xml collecting paragraph text
// and style names.
func parseDocumentXML(data []byte, styles map[string]string) ([]Paragraph, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var paragraphs []Paragraph
	var current *Paragraph
	var text strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				current = &Paragraph{}
				text.Reset()
			case "pStyle":
				if current != nil {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							if name, ok := styles[attr.Value]; ok {
								current.Style = name
							} else {
								current.Style = attr.Value
							}
						}
					}
				}
			case "t":
				inText = current != nil
			case "br", "cr":
				if current != nil {
					text.WriteByte('\n')
				}
			case "tab":
				if current != nil {
					text.WriteByte('\t')
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if current != nil {
					current.Text = text.String()
					paragraphs = append(paragraphs, *current)
					current = nil
				}
			}
		}
	}
	return paragraphs, nil
}

// extractText joins all paragraph text with newlines, the raw-text
// rendering used for DOCX→TXT.
func extractText(paragraphs []Paragraph) string {
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, p.Text)
	}
	return strings.Join(lines, "\n")
}
