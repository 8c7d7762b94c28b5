package profile

import (
	"fmt"
	"strings"
)

// SetField returns a copy of the draft with one scalar field replaced.
// Field names match the JSON payload (firstName, zipCode, ...).
func (d Draft) SetField(name, value string) (Draft, error) {
	out := d
	switch name {
	case "firstName":
		out.FirstName = value
	case "lastName":
		out.LastName = value
	case "phoneNumber":
		out.PhoneNumber = value
	case "address":
		out.Address = value
	case "city":
		out.City = value
	case "state":
		out.State = value
	case "zipCode":
		out.ZipCode = value
	case "country":
		out.Country = value
	case "birthday":
		out.Birthday = value
	case "linkedinLink":
		out.LinkedinLink = value
	case "summary":
		out.Summary = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return out, nil
}

// AddSkill appends a trimmed skill. Blank skills and exact duplicates leave
// the draft unchanged.
func (d Draft) AddSkill(skill string) Draft {
	skill = strings.TrimSpace(skill)
	if skill == "" || d.HasSkill(skill) {
		return d
	}
	out := d
	out.Skills = make([]string, 0, len(d.Skills)+1)
	out.Skills = append(out.Skills, d.Skills...)
	out.Skills = append(out.Skills, skill)
	return out
}

// HasSkill reports whether the skill is present (case-sensitive).
func (d Draft) HasSkill(skill string) bool {
	for _, s := range d.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// CleanSkills trims every skill and drops blanks and repeats, keeping the
// first occurrence. Drafts supplied whole by a client or read from storage
// pass through it.
func (d Draft) CleanSkills() Draft {
	out := d
	out.Skills = CleanSkillList(d.Skills)
	return out
}

// CleanSkillList returns a trimmed, blank-free, duplicate-free copy of
// skills. Matching is exact after trimming.
func CleanSkillList(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// RemoveSkill drops every exact match of skill.
func (d Draft) RemoveSkill(skill string) Draft {
	out := d
	out.Skills = make([]string, 0, len(d.Skills))
	for _, s := range d.Skills {
		if s != skill {
			out.Skills = append(out.Skills, s)
		}
	}
	return out
}

// AddExperience appends an empty, current experience entry.
func (d Draft) AddExperience() Draft {
	out := d
	out.Experience = make([]Experience, 0, len(d.Experience)+1)
	out.Experience = append(out.Experience, d.Experience...)
	out.Experience = append(out.Experience, Experience{})
	return out
}

// UpdateExperience replaces one field of the entry at index. Only endDate
// accepts nil; nil for any other field stores "".
func (d Draft) UpdateExperience(index int, field string, value *string) (Draft, error) {
	if index < 0 || index >= len(d.Experience) {
		return d, fmt.Errorf("experience %d: %w", index, ErrIndexOutOfRange)
	}
	entry := d.Experience[index]
	switch field {
	case "title":
		entry.Title = deref(value)
	case "company":
		entry.Company = deref(value)
	case "startDate":
		entry.StartDate = deref(value)
	case "endDate":
		entry.EndDate = cloneStringPtr(value)
	case "description":
		entry.Description = deref(value)
	default:
		return d, fmt.Errorf("experience: %w: %q", ErrUnknownField, field)
	}
	out := d
	out.Experience = make([]Experience, len(d.Experience))
	copy(out.Experience, d.Experience)
	out.Experience[index] = entry
	return out, nil
}

// RemoveExperience drops the entry at index; later entries shift down.
func (d Draft) RemoveExperience(index int) (Draft, error) {
	if index < 0 || index >= len(d.Experience) {
		return d, fmt.Errorf("experience %d: %w", index, ErrIndexOutOfRange)
	}
	out := d
	out.Experience = make([]Experience, 0, len(d.Experience)-1)
	out.Experience = append(out.Experience, d.Experience[:index]...)
	out.Experience = append(out.Experience, d.Experience[index+1:]...)
	return out, nil
}

// AddEducation appends an empty, ongoing education entry.
func (d Draft) AddEducation() Draft {
	out := d
	out.Education = make([]Education, 0, len(d.Education)+1)
	out.Education = append(out.Education, d.Education...)
	out.Education = append(out.Education, Education{})
	return out
}

// UpdateEducation replaces one field of the entry at index.
func (d Draft) UpdateEducation(index int, field string, value *string) (Draft, error) {
	if index < 0 || index >= len(d.Education) {
		return d, fmt.Errorf("education %d: %w", index, ErrIndexOutOfRange)
	}
	entry := d.Education[index]
	switch field {
	case "degree":
		entry.Degree = deref(value)
	case "school":
		entry.School = deref(value)
	case "field":
		entry.Field = deref(value)
	case "startDate":
		entry.StartDate = deref(value)
	case "endDate":
		entry.EndDate = cloneStringPtr(value)
	default:
		return d, fmt.Errorf("education: %w: %q", ErrUnknownField, field)
	}
	out := d
	out.Education = make([]Education, len(d.Education))
	copy(out.Education, d.Education)
	out.Education[index] = entry
	return out, nil
}

// RemoveEducation drops the entry at index; later entries shift down.
func (d Draft) RemoveEducation(index int) (Draft, error) {
	if index < 0 || index >= len(d.Education) {
		return d, fmt.Errorf("education %d: %w", index, ErrIndexOutOfRange)
	}
	out := d
	out.Education = make([]Education, 0, len(d.Education)-1)
	out.Education = append(out.Education, d.Education[:index]...)
	out.Education = append(out.Education, d.Education[index+1:]...)
	return out, nil
}

// WithResume returns a copy with only the resume location fields changed.
func (d Draft) WithResume(url, path string) Draft {
	out := d
	out.ResumeURL = url
	out.ResumePath = path
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
