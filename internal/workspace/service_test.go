package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-backend/internal/extract"
	"profile-backend/internal/llm"
	"profile-backend/internal/profile"
	"profile-backend/internal/profilestore"
	"profile-backend/internal/resumes"
	"profile-backend/internal/shared/storage/kv"
	"profile-backend/internal/shared/storage/object/local"
	"profile-backend/internal/shared/telemetry"
)

type fakeLLM struct {
	raw     string
	err     error
	calls   int
	gotText string
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeLLM) ExtractProfile(ctx context.Context, text string) (profile.ExtractionResult, error) {
	f.calls++
	f.gotText = text
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return profile.ExtractionResult{}, f.err
	}
	return llm.DecodeExtraction([]byte(f.raw))
}

type failingRepo struct{}

func (failingRepo) Get(context.Context, string) (profilestore.Record, error) {
	return profilestore.Record{}, profilestore.ErrNotFound
}
func (failingRepo) Upsert(context.Context, profilestore.Record) error {
	return errors.New("connection reset")
}

type harness struct {
	svc      *Service
	repo     *profilestore.MemoryRepo
	fallback *kv.MemoryStore
	llm      *fakeLLM
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Cleanup(telemetry.SetOutput(io.Discard))
	repo := profilestore.NewMemoryRepo()
	fallback := kv.NewMemoryStore()
	client := &fakeLLM{}
	uploader := resumes.NewUploader(local.New(t.TempDir(), "http://api.test"), 0)
	svc := NewService(profilestore.NewGateway(repo, fallback), client, profile.Overwrite{}, uploader)
	return &harness{svc: svc, repo: repo, fallback: fallback, llm: client}
}

func completeDraft() profile.Draft {
	d := profile.Empty()
	d.FirstName = "Ada"
	d.LastName = "Lovelace"
	d.PhoneNumber = "555-0100"
	d.Address = "1 Analytical Way"
	d.City = "London"
	d.State = "LDN"
	d.ZipCode = "N1"
	d.Country = "UK"
	d.Birthday = "1815-12-10"
	d.LinkedinLink = "https://linkedin.com/in/ada"
	d.Summary = "Mathematician"
	d.Skills = []string{"Mathematics"}
	d.Experience = []profile.Experience{{Title: "Analyst", Company: "Babbage & Co", StartDate: "1842-01", Description: "Notes"}}
	d.Education = []profile.Education{{Degree: "Private", School: "Home", Field: "Mathematics", StartDate: "1830-01"}}
	return d
}

func TestAnalyzeRequiresResumeText(t *testing.T) {
	h := newHarness(t)
	h.svc.SetResumeText(context.Background(), "u1", "   \n")

	_, err := h.svc.Analyze(context.Background(), "u1")
	require.ErrorIs(t, err, ErrNoResumeText)
	assert.Equal(t, "Please enter or paste your resume text", err.Error())
	assert.Zero(t, h.llm.calls)
}

func TestAnalyzeOverwritesDraftFromExtraction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.llm.raw = `{"firstName":"Ada","skills":["C++"],"experience":[]}`
	_, err := h.svc.SetFields(ctx, "u1", []FieldValue{{Field: "lastName", Value: "Byron"}})
	require.NoError(t, err)
	h.svc.SetResumeText(ctx, "u1", "Ada ... C++")

	res, err := h.svc.Analyze(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, MsgAnalyzed, res.Message)
	assert.Equal(t, "Ada ... C++", h.llm.gotText)

	d := res.Draft
	assert.Equal(t, "Ada", d.FirstName)
	assert.Equal(t, "", d.LastName)
	assert.Equal(t, []string{"C++"}, d.Skills)
	assert.Equal(t, []profile.Experience{}, d.Experience)
	assert.Equal(t, []profile.Education{}, d.Education)
	assert.Equal(t, "", res.ResumeText, "pending text is cleared")
}

func TestAnalyzeNormalizesDates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.llm.raw = `{"experience":[{"title":"Dev","company":"X","startDate":"2020-01-15","endDate":"2021-02-28T00:00:00Z","description":"d"}],
"education":[{"degree":"BSc","school":"Y","field":"CS","startDate":"2016-09","endDate":null}]}`
	h.svc.SetResumeText(ctx, "u1", "resume")

	res, err := h.svc.Analyze(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, res.Draft.Experience, 1)
	assert.Equal(t, "2020-01", res.Draft.Experience[0].StartDate)
	require.NotNil(t, res.Draft.Experience[0].EndDate)
	assert.Equal(t, "2021-02", *res.Draft.Experience[0].EndDate)
	assert.Nil(t, res.Draft.Education[0].EndDate)
}

func TestAnalyzeFailureKeepsTextAndDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.llm.err = &llm.ServiceError{Status: 500, Message: "boom"}
	_, err := h.svc.AddSkill(ctx, "u1", "Go")
	require.NoError(t, err)
	h.svc.SetResumeText(ctx, "u1", "resume")

	_, err = h.svc.Analyze(ctx, "u1")
	var svcErr *llm.ServiceError
	require.ErrorAs(t, err, &svcErr)

	snap := h.svc.Draft(ctx, "u1")
	assert.Equal(t, "resume", snap.ResumeText)
	assert.Equal(t, []string{"Go"}, snap.Draft.Skills)
}

func TestAnalyzeWithFieldMergeKeepsEdits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.Reconciler = profile.FieldMerge{}
	h.llm.raw = `{"firstName":"Augusta","lastName":"King","skills":["C++"]}`
	_, err := h.svc.SetFields(ctx, "u1", []FieldValue{{Field: "firstName", Value: "Ada"}})
	require.NoError(t, err)
	_, err = h.svc.AddSkill(ctx, "u1", "Go")
	require.NoError(t, err)
	h.svc.SetResumeText(ctx, "u1", "resume")

	res, err := h.svc.Analyze(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.Draft.FirstName)
	assert.Equal(t, "King", res.Draft.LastName)
	assert.Equal(t, []string{"Go", "C++"}, res.Draft.Skills)
}

func TestConcurrentPipelineIsBusy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.llm.raw = `{}`
	h.llm.block = make(chan struct{})
	h.llm.entered = make(chan struct{})
	h.svc.SetResumeText(ctx, "u1", "resume")

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = h.svc.Analyze(ctx, "u1")
	}()

	select {
	case <-h.llm.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("analysis never started")
	}

	_, err := h.svc.Analyze(ctx, "u1")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = h.svc.Save(ctx, "u1")
	assert.ErrorIs(t, err, ErrBusy)

	// Manual edits are still accepted.
	_, err = h.svc.AddSkill(ctx, "u1", "Go")
	assert.NoError(t, err)

	close(h.llm.block)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 1, h.llm.calls)
}

func TestExtractTextStoresPendingText(t *testing.T) {
	h := newHarness(t)
	h.svc.Extract = func(context.Context, []byte, string, string) (string, error) {
		return "A B\n\nC", nil
	}

	res, err := h.svc.ExtractText(context.Background(), "u1", []byte("%PDF-"), extract.MimePDF, "cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, MsgExtracted, res.Message)
	assert.Equal(t, "A B\n\nC", res.ResumeText)
}

func TestExtractTextPropagatesErrors(t *testing.T) {
	h := newHarness(t)
	h.svc.SetResumeText(context.Background(), "u1", "typed")
	h.svc.Extract = func(context.Context, []byte, string, string) (string, error) {
		return "", extract.ErrEmptyExtraction
	}

	_, err := h.svc.ExtractText(context.Background(), "u1", []byte("%PDF-"), extract.MimePDF, "cv.pdf")
	require.ErrorIs(t, err, extract.ErrEmptyExtraction)
	assert.Equal(t, "typed", h.svc.Draft(context.Background(), "u1").ResumeText)
}

func TestUploadResumeRecordsURLAndExtracts(t *testing.T) {
	h := newHarness(t)
	h.svc.Extract = func(context.Context, []byte, string, string) (string, error) {
		return "resume text", nil
	}

	res, err := h.svc.UploadResume(context.Background(), "u1", "cv.pdf", extract.MimePDF, []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NotNil(t, res.Resume)
	assert.Equal(t, resumes.URLKindPublic, res.Resume.Kind)
	assert.Equal(t, res.Resume.URL, res.Draft.ResumeURL)
	assert.Equal(t, res.Resume.Path, res.Draft.ResumePath)
	assert.Equal(t, "resume text", res.ResumeText)
	assert.Empty(t, res.Warning)
}

func TestUploadResumeSurvivesExtractionFailure(t *testing.T) {
	h := newHarness(t)
	h.svc.Extract = func(context.Context, []byte, string, string) (string, error) {
		return "", extract.ErrEmptyExtraction
	}

	res, err := h.svc.UploadResume(context.Background(), "u1", "scan.pdf", extract.MimePDF, []byte("%PDF-1.4 scan"))
	require.NoError(t, err)
	assert.Equal(t, MsgUploaded, res.Message)
	assert.Equal(t, extract.ErrEmptyExtraction.Error(), res.Warning)
	assert.NotEmpty(t, res.Draft.ResumeURL)
}

func TestUploadResumeRejectsUnsupportedFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.UploadResume(context.Background(), "u1", "notes.txt", "text/plain", []byte("hello"))
	require.ErrorIs(t, err, extract.ErrUnsupportedFormat)
	assert.Empty(t, h.svc.Draft(context.Background(), "u1").Draft.ResumeURL)
}

func TestSaveRejectsIncompleteDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := completeDraft()
	d.Summary = ""
	_, err := h.svc.Replace(ctx, "u1", d)
	require.NoError(t, err)

	_, err = h.svc.Save(ctx, "u1")
	var vErr *profile.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Summary is required", vErr.Message)

	_, err = h.repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, profilestore.ErrNotFound)
}

func TestSavePersistsAndReloads(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Replace(ctx, "u1", completeDraft())
	require.NoError(t, err)

	res, err := h.svc.Save(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, MsgSaved, res.Message)
	assert.Equal(t, profilestore.SourcePrimary, res.Source)

	other := NewService(h.svc.Gateway, nil, nil, nil)
	snap := other.Draft(ctx, "u1")
	assert.Equal(t, profilestore.SourcePrimary, snap.Source)
	assert.Equal(t, "Lovelace", snap.Draft.LastName)
}

func TestSaveFallsBackSilently(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	fallback := kv.NewMemoryStore()
	svc := NewService(profilestore.NewGateway(failingRepo{}, fallback), nil, nil, nil)
	ctx := context.Background()
	_, err := svc.Replace(ctx, "u7", completeDraft())
	require.NoError(t, err)

	res, err := svc.Save(ctx, "u7")
	require.NoError(t, err)
	assert.Equal(t, profilestore.SourceFallback, res.Source)
	_, err = fallback.Get(ctx, "profile_u7")
	require.NoError(t, err)
}

func TestManualEditErrorsLeaveDraftUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.AddExperience(ctx, "u1")
	require.NoError(t, err)

	_, err = h.svc.RemoveExperience(ctx, "u1", 3)
	require.ErrorIs(t, err, profile.ErrIndexOutOfRange)

	_, err = h.svc.SetFields(ctx, "u1", []FieldValue{{Field: "city", Value: "Paris"}, {Field: "nope", Value: "x"}})
	require.ErrorIs(t, err, profile.ErrUnknownField)

	snap := h.svc.Draft(ctx, "u1")
	assert.Len(t, snap.Draft.Experience, 1)
	assert.Equal(t, "", snap.Draft.City)
}

func TestLoadReplacesDraftFromStorage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.AddSkill(ctx, "u1", "Unsaved")
	require.NoError(t, err)

	snap, err := h.svc.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, profilestore.SourceDefault, snap.Source)
	assert.Empty(t, snap.Draft.Skills)
}

func TestReplaceCleansSkillsBeforeSave(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := completeDraft()
	d.Skills = []string{"Go", "Go", "   ", " SQL"}

	snap, err := h.svc.Replace(ctx, "u1", d)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, snap.Draft.Skills)

	_, err = h.svc.Save(ctx, "u1")
	require.NoError(t, err)
	rec, err := h.repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, rec.Draft.Skills)
}

func TestSaveRejectsBlankOnlySkills(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := completeDraft()
	d.Skills = []string{"  ", ""}
	_, err := h.svc.Replace(ctx, "u1", d)
	require.NoError(t, err)

	_, err = h.svc.Save(ctx, "u1")
	var verr *profile.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "skills", verr.Field)
}

// signingStore mints a new signed URL on every call.
type signingStore struct {
	mu    sync.Mutex
	signs int
}

func (s *signingStore) Put(_ context.Context, _ string, _ string, r io.Reader) (int64, error) {
	return io.Copy(io.Discard, r)
}
func (s *signingStore) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}
func (s *signingStore) Delete(context.Context, string) error { return nil }
func (s *signingStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signs++
	return fmt.Sprintf("https://signed.test/%s?v=%d", key, s.signs), nil
}
func (s *signingStore) PublicURL(key string) (string, error) { return "https://public.test/" + key, nil }

func TestResumeURLIsRefreshedOnLoadAndOnDemand(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	ctx := context.Background()
	repo := profilestore.NewMemoryRepo()
	gw := profilestore.NewGateway(repo, kv.NewMemoryStore())
	uploader := resumes.NewUploader(&signingStore{}, 0)

	stored := completeDraft().WithResume("https://signed.test/abc/1_cv.pdf?v=expired", "abc/1_cv.pdf")
	require.NoError(t, repo.Upsert(ctx, profilestore.Record{UserID: "u1", Draft: stored}))

	svc := NewService(gw, nil, nil, uploader)
	snap := svc.Draft(ctx, "u1")
	assert.Equal(t, "https://signed.test/abc/1_cv.pdf?v=1", snap.Draft.ResumeURL)
	assert.Equal(t, "abc/1_cv.pdf", snap.Draft.ResumePath)

	res, err := svc.RefreshResumeURL(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, res.Resume)
	assert.Equal(t, resumes.URLKindSigned, res.Resume.Kind)
	assert.Equal(t, "https://signed.test/abc/1_cv.pdf?v=2", res.Draft.ResumeURL)

	snap, err = svc.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.test/abc/1_cv.pdf?v=3", snap.Draft.ResumeURL)
}

func TestRefreshResumeURLWithoutUpload(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.RefreshResumeURL(context.Background(), "u1")
	require.ErrorIs(t, err, ErrNoResume)
}
