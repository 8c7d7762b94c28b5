package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

type fakePages struct {
	pages [][]string
	err   error
}

func (f fakePages) NumPage() int { return len(f.pages) }

func (f fakePages) PageItems(n int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[n-1], nil
}

func TestJoinPages(t *testing.T) {
	got, err := joinPages(context.Background(), fakePages{pages: [][]string{{"A", "B"}, {"C"}}})
	if err != nil {
		t.Fatalf("joinPages: %v", err)
	}
	if got != "A B\n\nC" {
		t.Fatalf("got %q", got)
	}
}

func TestJoinPagesTrimsBlankPages(t *testing.T) {
	got, err := joinPages(context.Background(), fakePages{pages: [][]string{{}, {"Only"}, {}}})
	if err != nil {
		t.Fatalf("joinPages: %v", err)
	}
	if got != "Only" {
		t.Fatalf("got %q", got)
	}
}

func TestJoinPagesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := joinPages(ctx, fakePages{pages: [][]string{{"A"}}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestJoinPagesPageError(t *testing.T) {
	boom := errors.New("boom")
	_, err := joinPages(context.Background(), fakePages{pages: [][]string{{"A"}}, err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped page error, got %v", err)
	}
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	_, err := ExtractText(context.Background(), []byte("hello"), "text/plain", "notes.txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractTextRealZipRejected(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "hello"})
	_, err := ExtractText(context.Background(), data, "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractTextDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?><w:document xmlns:w="w"><w:body>` +
			`<w:p><w:r><w:t>Ada Lovelace</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>Analyst</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})

	got, err := ExtractText(context.Background(), data, "application/zip", "cv.docx")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "Ada Lovelace\nAnalyst" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractTextEmptyDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?><w:document xmlns:w="w"><w:body><w:p/></w:body></w:document>`,
	})
	_, err := ExtractText(context.Background(), data, MimeDOCX, "cv.docx")
	if !errors.Is(err, ErrEmptyExtraction) {
		t.Fatalf("expected ErrEmptyExtraction, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "DOCX") || strings.Contains(msg, "PDF") {
		t.Fatalf("message should name DOCX only: %q", msg)
	}
}

func TestEmptyErrorNamesFormat(t *testing.T) {
	err := error(&EmptyError{Format: formatName(MimePDF)})
	if !errors.Is(err, ErrEmptyExtraction) {
		t.Fatal("expected EmptyError to match ErrEmptyExtraction")
	}
	want := "Could not extract text from PDF. The PDF might be scanned or image-based. Please use manual input or ensure your PDF contains selectable text."
	if err.Error() != want {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestExtractTextPDF(t *testing.T) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.Text(20, 20, "Lovelace")
	doc.AddPage()
	doc.Text(20, 20, "Babbage")
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("render pdf: %v", err)
	}

	got, err := ExtractText(context.Background(), buf.Bytes(), "", "resume.pdf")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	compact := strings.ReplaceAll(got, " ", "")
	if !strings.Contains(compact, "Lovelace") || !strings.Contains(compact, "Babbage") {
		t.Fatalf("missing page text in %q", got)
	}
	if strings.Index(compact, "Lovelace") > strings.Index(compact, "Babbage") {
		t.Fatalf("pages out of order: %q", got)
	}
	if !strings.Contains(got, "\n\n") {
		t.Fatalf("expected page separator in %q", got)
	}
}

func TestExtractTextMalformedPDF(t *testing.T) {
	_, err := ExtractText(context.Background(), []byte("%PDF-1.4 garbage"), MimePDF, "broken.pdf")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDetectFormat(t *testing.T) {
	docx := buildZip(t, map[string]string{"word/document.xml": "<w/>"})
	tests := []struct {
		name     string
		mimeType string
		fileName string
		data     []byte
		want     string
	}{
		{name: "declared pdf", mimeType: "application/pdf; charset=binary", want: MimePDF},
		{name: "octet stream sniffed", mimeType: "application/octet-stream", data: []byte("%PDF-1.7\n"), want: MimePDF},
		{name: "extension fallback", fileName: "cv.PDF", want: MimePDF},
		{name: "zip with document", mimeType: "application/zip", fileName: "x.zip", data: docx, want: MimeDOCX},
		{name: "other declared", mimeType: "image/png", fileName: "cv.pdf", want: "image/png"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.mimeType, tt.fileName, tt.data); got != tt.want {
				t.Fatalf("DetectFormat = %q, want %q", got, tt.want)
			}
		})
	}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
