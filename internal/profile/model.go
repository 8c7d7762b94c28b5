package profile

// Draft is the working applicant profile being edited by a user.
type Draft struct {
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	PhoneNumber  string       `json:"phoneNumber"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	ZipCode      string       `json:"zipCode"`
	Country      string       `json:"country"`
	Birthday     string       `json:"birthday"`
	LinkedinLink string       `json:"linkedinLink"`
	Summary      string       `json:"summary"`
	Skills       []string     `json:"skills"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
	ResumeURL    string       `json:"resumeUrl,omitempty"`
	ResumePath   string       `json:"resumePath,omitempty"`
}

// Experience is a single work history entry. A nil EndDate means the
// position is current.
type Experience struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Description string  `json:"description"`
}

// Education is a single education entry. A nil EndDate means ongoing.
type Education struct {
	Degree    string  `json:"degree"`
	School    string  `json:"school"`
	Field     string  `json:"field"`
	StartDate string  `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// ExtractionResult is the structured-extraction service's guess at a full
// profile. Clients return it with every list non-nil.
type ExtractionResult struct {
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	PhoneNumber  string       `json:"phoneNumber"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	ZipCode      string       `json:"zipCode"`
	Country      string       `json:"country"`
	Birthday     string       `json:"birthday"`
	LinkedinLink string       `json:"linkedinLink"`
	Summary      string       `json:"summary"`
	Skills       []string     `json:"skills"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
}

// Empty returns a draft with every scalar empty and every list non-nil.
func Empty() Draft {
	return Draft{
		Skills:     []string{},
		Experience: []Experience{},
		Education:  []Education{},
	}
}

// Normalize fills nil lists so the draft serializes as a total record.
func (d Draft) Normalize() Draft {
	if d.Skills == nil {
		d.Skills = []string{}
	}
	if d.Experience == nil {
		d.Experience = []Experience{}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	return d
}

// Draft converts an extraction result into a draft without resume fields.
func (r ExtractionResult) Draft() Draft {
	return Draft{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PhoneNumber:  r.PhoneNumber,
		Address:      r.Address,
		City:         r.City,
		State:        r.State,
		ZipCode:      r.ZipCode,
		Country:      r.Country,
		Birthday:     r.Birthday,
		LinkedinLink: r.LinkedinLink,
		Summary:      r.Summary,
		Skills:       cloneStrings(r.Skills),
		Experience:   cloneExperience(r.Experience),
		Education:    cloneEducation(r.Education),
	}.Normalize()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneExperience(in []Experience) []Experience {
	if in == nil {
		return nil
	}
	out := make([]Experience, len(in))
	for i, e := range in {
		e.EndDate = cloneStringPtr(e.EndDate)
		out[i] = e
	}
	return out
}

func cloneEducation(in []Education) []Education {
	if in == nil {
		return nil
	}
	out := make([]Education, len(in))
	for i, e := range in {
		e.EndDate = cloneStringPtr(e.EndDate)
		out[i] = e
	}
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
