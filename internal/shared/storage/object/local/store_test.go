package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"profile-backend/internal/shared/storage/object"
)

func TestPutOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080/")
	ctx := context.Background()

	n, err := store.Put(ctx, "abc/1700000000000_cv.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 8 {
		t.Fatalf("size = %d", n)
	}

	rc, err := store.Open(ctx, "abc/1700000000000_cv.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "%PDF-1.4" {
		t.Fatalf("body = %q", body)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080")
	if _, err := store.Put(context.Background(), "../escape.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if _, err := store.PublicURL("/etc/passwd"); err == nil {
		t.Fatal("expected absolute key to be rejected")
	}
}

func TestURLs(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080/")

	if _, err := store.SignedURL(context.Background(), "a/b.pdf", time.Hour); !errors.Is(err, object.ErrSigningUnsupported) {
		t.Fatalf("expected ErrSigningUnsupported, got %v", err)
	}
	got, err := store.PublicURL("a/1_my cv.pdf")
	if err != nil {
		t.Fatalf("PublicURL: %v", err)
	}
	if got != "http://localhost:8080/files/a/1_my%20cv.pdf" {
		t.Fatalf("PublicURL = %q", got)
	}
}

func TestDeleteRemovesFileAndIgnoresMissing(t *testing.T) {
	store := New(t.TempDir(), "http://localhost:8080")
	ctx := context.Background()

	if _, err := store.Put(ctx, "abc/cv.pdf", "application/pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, "abc/cv.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, "abc/cv.pdf"); err == nil {
		t.Fatal("expected deleted file to be gone")
	}
	if err := store.Delete(ctx, "abc/cv.pdf"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
	if err := store.Delete(ctx, "../escape.txt"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}
