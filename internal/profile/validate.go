package profile

import (
	"fmt"
	"strings"
)

type requiredField struct {
	name  string
	label string
	get   func(Draft) string
}

var requiredFields = []requiredField{
	{"firstName", "First name", func(d Draft) string { return d.FirstName }},
	{"lastName", "Last name", func(d Draft) string { return d.LastName }},
	{"phoneNumber", "Phone number", func(d Draft) string { return d.PhoneNumber }},
	{"address", "Address", func(d Draft) string { return d.Address }},
	{"city", "City", func(d Draft) string { return d.City }},
	{"state", "State", func(d Draft) string { return d.State }},
	{"zipCode", "Zip code", func(d Draft) string { return d.ZipCode }},
	{"country", "Country", func(d Draft) string { return d.Country }},
	{"birthday", "Birthday", func(d Draft) string { return d.Birthday }},
	{"linkedinLink", "LinkedIn link", func(d Draft) string { return d.LinkedinLink }},
	{"summary", "Summary", func(d Draft) string { return d.Summary }},
}

// Validate checks the draft for completeness before it is saved and returns
// a *ValidationError for the first violation in a fixed order: scalar fields,
// then non-empty lists, then each experience and education entry. End dates
// are never required.
func Validate(d Draft) error {
	for _, f := range requiredFields {
		if blank(f.get(d)) {
			return invalid(f.name, f.label+" is required")
		}
	}
	if !hasNonBlank(d.Skills) {
		return invalid("skills", "At least one skill is required")
	}
	if len(d.Experience) == 0 {
		return invalid("experience", "At least one experience entry is required")
	}
	if len(d.Education) == 0 {
		return invalid("education", "At least one education entry is required")
	}
	for i, e := range d.Experience {
		field := ""
		switch {
		case blank(e.Title):
			field = "title"
		case blank(e.Company):
			field = "company"
		case blank(e.StartDate):
			field = "startDate"
		case blank(e.Description):
			field = "description"
		}
		if field != "" {
			return invalid(fmt.Sprintf("experience[%d].%s", i, field),
				fmt.Sprintf("Experience %d: %s is required", i+1, entryLabel(field)))
		}
	}
	for i, e := range d.Education {
		field := ""
		switch {
		case blank(e.Degree):
			field = "degree"
		case blank(e.School):
			field = "school"
		case blank(e.Field):
			field = "field"
		case blank(e.StartDate):
			field = "startDate"
		}
		if field != "" {
			return invalid(fmt.Sprintf("education[%d].%s", i, field),
				fmt.Sprintf("Education %d: %s is required", i+1, entryLabel(field)))
		}
	}
	return nil
}

func entryLabel(field string) string {
	switch field {
	case "startDate":
		return "start date"
	case "field":
		return "field of study"
	default:
		return field
	}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func hasNonBlank(values []string) bool {
	for _, v := range values {
		if !blank(v) {
			return true
		}
	}
	return false
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
