package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"profile-backend/internal/profile"
)

// The schema is deliberately lenient: every key may be absent or null and
// DecodeExtraction fills the gaps. It only rejects wrong shapes.
const extractionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "text": {"type": ["string", "null"]},
    "experience": {
      "type": ["object", "null"],
      "properties": {
        "title": {"$ref": "#/definitions/text"},
        "company": {"$ref": "#/definitions/text"},
        "startDate": {"$ref": "#/definitions/text"},
        "endDate": {"$ref": "#/definitions/text"},
        "description": {"$ref": "#/definitions/text"}
      }
    },
    "education": {
      "type": ["object", "null"],
      "properties": {
        "degree": {"$ref": "#/definitions/text"},
        "school": {"$ref": "#/definitions/text"},
        "field": {"$ref": "#/definitions/text"},
        "startDate": {"$ref": "#/definitions/text"},
        "endDate": {"$ref": "#/definitions/text"}
      }
    }
  },
  "properties": {
    "firstName": {"$ref": "#/definitions/text"},
    "lastName": {"$ref": "#/definitions/text"},
    "phoneNumber": {"$ref": "#/definitions/text"},
    "address": {"$ref": "#/definitions/text"},
    "city": {"$ref": "#/definitions/text"},
    "state": {"$ref": "#/definitions/text"},
    "zipCode": {"$ref": "#/definitions/text"},
    "country": {"$ref": "#/definitions/text"},
    "birthday": {"$ref": "#/definitions/text"},
    "linkedinLink": {"$ref": "#/definitions/text"},
    "summary": {"$ref": "#/definitions/text"},
    "skills": {"type": ["array", "null"], "items": {"$ref": "#/definitions/text"}},
    "experience": {"type": ["array", "null"], "items": {"$ref": "#/definitions/experience"}},
    "education": {"type": ["array", "null"], "items": {"$ref": "#/definitions/education"}}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("extraction.json", strings.NewReader(extractionSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = c.Compile("extraction.json")
	})
	return compiledSchema, schemaErr
}

// DecodeExtraction validates raw service content and returns a total
// ExtractionResult: absent or null strings become "", absent lists become
// empty, absent end dates stay nil. Skills are trimmed and de-duplicated.
func DecodeExtraction(raw []byte) (profile.ExtractionResult, error) {
	raw = bytes.TrimSpace(raw)
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return profile.ExtractionResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	schema, err := loadSchema()
	if err != nil {
		return profile.ExtractionResult{}, fmt.Errorf("compile extraction schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return profile.ExtractionResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var wire struct {
		profile.ExtractionResult
		Experience []*profile.Experience `json:"experience"`
		Education  []*profile.Education  `json:"education"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return profile.ExtractionResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := wire.ExtractionResult
	out.Skills = profile.CleanSkillList(wire.Skills)
	out.Experience = make([]profile.Experience, 0, len(wire.Experience))
	for _, e := range wire.Experience {
		if e != nil {
			out.Experience = append(out.Experience, *e)
		}
	}
	out.Education = make([]profile.Education, 0, len(wire.Education))
	for _, e := range wire.Education {
		if e != nil {
			out.Education = append(out.Education, *e)
		}
	}
	return out, nil
}
