// Package extract turns uploaded product datasheets into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MaxDescriptionRunes caps the text kept from a datasheet.
const MaxDescriptionRunes = 20000

// ErrUnsupported is returned for payloads that are neither PDF nor DOCX.
var ErrUnsupported = errors.New("unsupported datasheet type")

// Datasheet extracts readable text from a PDF or DOCX payload. The declared
// mime type wins when specific; otherwise the type is sniffed from the bytes
// and the file extension.
func Datasheet(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty datasheet")
	}

	var (
		text string
		err  error
	)
	switch kind := detect(mimeType, fileName, data); kind {
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDOCX:
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", fileName, err)
	}
	return clip(collapse(text), MaxDescriptionRunes), nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	doc := findEntry(zr, "word/document.xml")
	if doc == nil {
		return "", errors.New("word/document.xml not found")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return docxText(rc)
}

// docxText keeps character data and breaks lines at paragraph, break and tab ends.
func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "br":
				buf.WriteByte('\n')
			case "tab":
				buf.WriteByte(' ')
			}
		}
	}
	return buf.String(), nil
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f
		}
	}
	return nil
}

func detect(mimeType, fileName string, data []byte) string {
	declared := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch declared {
	case MimePDF, MimeDOCX:
		return declared
	case "", "application/octet-stream", "application/zip", "application/x-zip-compressed":
	default:
		return declared
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MimePDF
	}
	sniffed := http.DetectContentType(data)
	if sniffed == "application/zip" {
		if zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil && findEntry(zr, "word/document.xml") != nil {
			return MimeDOCX
		}
		return sniffed
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	}
	if declared != "" {
		return declared
	}
	return sniffed
}

// collapse trims each line, drops blank runs and squeezes inner whitespace.
func collapse(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func clip(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max]))
}
