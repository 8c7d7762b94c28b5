package profile

import "strings"

// Reconciler folds a fresh extraction result into the current draft.
type Reconciler interface {
	Reconcile(current Draft, extracted ExtractionResult) Draft
}

// Overwrite replaces the whole draft with the extraction result. Edits made
// before analysis, including the resume location, are discarded.
type Overwrite struct{}

func (Overwrite) Reconcile(_ Draft, extracted ExtractionResult) Draft {
	return extracted.Draft()
}

// FieldMerge keeps every non-empty value already in the draft and only fills
// gaps from the extraction result. Skills are unioned in draft-first order.
type FieldMerge struct{}

func (FieldMerge) Reconcile(current Draft, extracted ExtractionResult) Draft {
	next := extracted.Draft()
	out := current.Normalize()
	out.FirstName = preferExisting(current.FirstName, next.FirstName)
	out.LastName = preferExisting(current.LastName, next.LastName)
	out.PhoneNumber = preferExisting(current.PhoneNumber, next.PhoneNumber)
	out.Address = preferExisting(current.Address, next.Address)
	out.City = preferExisting(current.City, next.City)
	out.State = preferExisting(current.State, next.State)
	out.ZipCode = preferExisting(current.ZipCode, next.ZipCode)
	out.Country = preferExisting(current.Country, next.Country)
	out.Birthday = preferExisting(current.Birthday, next.Birthday)
	out.LinkedinLink = preferExisting(current.LinkedinLink, next.LinkedinLink)
	out.Summary = preferExisting(current.Summary, next.Summary)
	for _, s := range next.Skills {
		out = out.AddSkill(s)
	}
	if len(current.Experience) == 0 {
		out.Experience = next.Experience
	}
	if len(current.Education) == 0 {
		out.Education = next.Education
	}
	return out
}

// ReconcilerFor resolves a strategy name; unknown names use Overwrite.
func ReconcilerFor(name string) Reconciler {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "merge", "field-merge", "field_merge":
		return FieldMerge{}
	default:
		return Overwrite{}
	}
}

func preferExisting(current, next string) string {
	if strings.TrimSpace(current) != "" {
		return current
	}
	return next
}
