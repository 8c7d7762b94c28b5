package auth

import (
	"errors"
	"testing"
)

func TestExtractAuthCode(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantCode  string
		wantState string
		wantErr   string
		noCode    bool
	}{
		{name: "fragment", url: "https://ext.chromiumapp.org/#code=frag&state=s1", wantCode: "frag", wantState: "s1"},
		{name: "query", url: "https://ext.chromiumapp.org/?code=q&state=s2", wantCode: "q", wantState: "s2"},
		{name: "fragment wins", url: "https://ext.chromiumapp.org/?code=q#code=frag", wantCode: "frag"},
		{name: "query replaces code-less fragment", url: "https://ext.chromiumapp.org/?code=q#state=ignored", wantCode: "q"},
		{name: "error with description", url: "https://ext.chromiumapp.org/#error=access_denied&error_description=User+cancelled", wantErr: "User cancelled"},
		{name: "error without description", url: "https://ext.chromiumapp.org/?error=server_error", wantErr: "server_error"},
		{name: "nothing", url: "https://ext.chromiumapp.org/", noCode: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cb, err := ExtractAuthCode(tt.url)
			switch {
			case tt.noCode:
				if !errors.Is(err, ErrNoAuthCode) {
					t.Fatalf("expected ErrNoAuthCode, got %v", err)
				}
			case tt.wantErr != "":
				var pe *ProviderError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ProviderError, got %v", err)
				}
				if pe.Error() != tt.wantErr {
					t.Fatalf("message = %q, want %q", pe.Error(), tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cb.Code != tt.wantCode || cb.State != tt.wantState {
					t.Fatalf("got %+v", cb)
				}
			}
		})
	}
}

func TestProviderErrorDefaultMessage(t *testing.T) {
	if got := (&ProviderError{}).Error(); got != "Authentication failed" {
		t.Fatalf("got %q", got)
	}
}
