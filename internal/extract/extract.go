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

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedFormat is returned before any parsing when the document
	// is neither a PDF nor a DOCX.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyExtraction means the document parsed but carried no selectable
	// text. ExtractText returns it wrapped in an *EmptyError naming the format.
	ErrEmptyExtraction = errors.New("Could not extract text from the document. It might be scanned or image-based. Please use manual input or ensure the file contains selectable text.")
)

// EmptyError reports a document of a known format that yielded no text.
type EmptyError struct {
	Format string // "PDF" or "DOCX"
}

func (e *EmptyError) Error() string {
	return fmt.Sprintf("Could not extract text from %[1]s. The %[1]s might be scanned or image-based. Please use manual input or ensure your %[1]s contains selectable text.", e.Format)
}

func (e *EmptyError) Is(target error) bool { return target == ErrEmptyExtraction }

func formatName(mime string) string {
	switch mime {
	case MimePDF:
		return "PDF"
	case MimeDOCX:
		return "DOCX"
	default:
		return "document"
	}
}

// pageSource yields the text items of each page in reading order.
type pageSource interface {
	NumPage() int
	PageItems(n int) ([]string, error)
}

// ExtractText returns the plain text of a PDF or DOCX document. PDF pages are
// visited in order; the items of a page are joined with single spaces and
// pages are separated by a blank line.
func ExtractText(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	format := DetectFormat(mimeType, fileName, data)
	var (
		text string
		err  error
	)
	switch format {
	case MimePDF:
		text, err = extractPDF(ctx, data)
	case MimeDOCX:
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &EmptyError{Format: formatName(format)}
	}
	return text, nil
}

// DetectFormat resolves the declared MIME type, falling back to content
// sniffing and the file extension when the declaration is generic.
func DetectFormat(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case MimePDF, MimeDOCX:
		return clean
	case "application/zip":
		if isDOCX(data) {
			return MimeDOCX
		}
		return clean
	case "", "application/octet-stream", "binary/octet-stream":
	default:
		return clean
	}

	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MimePDF
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	}
	if len(data) > 0 {
		sniffed := http.DetectContentType(data)
		if sniffed == "application/zip" && isDOCX(data) {
			return MimeDOCX
		}
		return strings.Split(sniffed, ";")[0]
	}
	if clean == "" {
		return "application/octet-stream"
	}
	return clean
}

func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	return joinPages(ctx, pdfPages{r: reader})
}

func joinPages(ctx context.Context, src pageSource) (string, error) {
	pages := make([]string, 0, src.NumPage())
	for n := 1; n <= src.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		items, err := src.PageItems(n)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n, err)
		}
		pages = append(pages, strings.Join(items, " "))
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n")), nil
}

type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PageItems(n int) ([]string, error) {
	page := p.r.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for _, t := range row.Content {
			b.WriteString(t.S)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			items = append(items, s)
		}
	}
	return items, nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	doc := findZipEntry(zr, "word/document.xml")
	if doc == nil {
		return "", errors.New("parse docx: document.xml not found")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	return stripDocxXML(raw), nil
}

func stripDocxXML(raw []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ""
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func isDOCX(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	return findZipEntry(zr, "word/document.xml") != nil
}

func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f
		}
	}
	return nil
}
