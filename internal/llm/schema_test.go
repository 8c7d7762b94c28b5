package llm

import (
	"errors"
	"testing"
)

func TestDecodeExtractionNullsAndDuplicates(t *testing.T) {
	raw := []byte(`{
		"firstName": null,
		"lastName": "Lovelace",
		"skills": ["Go", " Go ", "", null, "SQL"],
		"experience": [{"title": "Analyst", "company": "Engine", "startDate": "1842-01-05", "endDate": null}, null],
		"education": null
	}`)

	got, err := DecodeExtraction(raw)
	if err != nil {
		t.Fatalf("DecodeExtraction: %v", err)
	}
	if got.FirstName != "" || got.LastName != "Lovelace" {
		t.Fatalf("names = %q %q", got.FirstName, got.LastName)
	}
	if len(got.Skills) != 2 || got.Skills[0] != "Go" || got.Skills[1] != "SQL" {
		t.Fatalf("skills = %v", got.Skills)
	}
	if len(got.Experience) != 1 || got.Experience[0].EndDate != nil {
		t.Fatalf("experience = %+v", got.Experience)
	}
	if got.Experience[0].StartDate != "1842-01-05" {
		t.Fatalf("dates must be left for the normalizer, got %q", got.Experience[0].StartDate)
	}
	if got.Education == nil || len(got.Education) != 0 {
		t.Fatalf("education = %#v", got.Education)
	}
}

func TestDecodeExtractionRejectsWrongShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `firstName: Ada`},
		{name: "array root", raw: `[]`},
		{name: "numeric name", raw: `{"firstName": 42}`},
		{name: "skills object", raw: `{"skills": {"a": 1}}`},
		{name: "experience strings", raw: `{"experience": ["Analyst"]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeExtraction([]byte(tt.raw)); !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestExtractPromptCarriesText(t *testing.T) {
	got := ExtractPrompt("RESUME BODY")
	if len(got) == 0 || got[len(got)-len("RESUME BODY"):] != "RESUME BODY" {
		t.Fatalf("prompt does not end with resume text: %q", got)
	}
}
