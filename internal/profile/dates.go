package profile

import "regexp"

var (
	yearMonthRe    = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearMonthDayRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// NormalizeDate canonicalizes a date to YYYY-MM. Empty input yields "",
// YYYY-MM-DD (with any trailing content) is truncated, and anything else is
// returned unchanged.
func NormalizeDate(s string) string {
	switch {
	case s == "":
		return ""
	case yearMonthRe.MatchString(s):
		return s
	case yearMonthDayRe.MatchString(s):
		return s[:7]
	default:
		return s
	}
}

// NormalizeDatePtr applies NormalizeDate to an optional date. Nil stays nil.
func NormalizeDatePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := NormalizeDate(*p)
	return &v
}

// NormalizeDates returns a copy of the draft with every experience and
// education date normalized. The receiver is not modified.
func (d Draft) NormalizeDates() Draft {
	out := d
	out.Experience = cloneExperience(d.Experience)
	for i := range out.Experience {
		out.Experience[i].StartDate = NormalizeDate(out.Experience[i].StartDate)
		out.Experience[i].EndDate = NormalizeDatePtr(out.Experience[i].EndDate)
	}
	out.Education = cloneEducation(d.Education)
	for i := range out.Education {
		out.Education[i].StartDate = NormalizeDate(out.Education[i].StartDate)
		out.Education[i].EndDate = NormalizeDatePtr(out.Education[i].EndDate)
	}
	return out
}

// NormalizeDates returns a copy of the result with every entry date normalized.
func (r ExtractionResult) NormalizeDates() ExtractionResult {
	out := r
	out.Experience = cloneExperience(r.Experience)
	for i := range out.Experience {
		out.Experience[i].StartDate = NormalizeDate(out.Experience[i].StartDate)
		out.Experience[i].EndDate = NormalizeDatePtr(out.Experience[i].EndDate)
	}
	out.Education = cloneEducation(r.Education)
	for i := range out.Education {
		out.Education[i].StartDate = NormalizeDate(out.Education[i].StartDate)
		out.Education[i].EndDate = NormalizeDatePtr(out.Education[i].EndDate)
	}
	return out
}
