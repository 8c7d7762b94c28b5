package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"profile-backend/internal/extract"
	"profile-backend/internal/llm"
	"profile-backend/internal/profile"
	"profile-backend/internal/profilestore"
	"profile-backend/internal/resumes"
	"profile-backend/internal/shared/metrics"
	"profile-backend/internal/shared/telemetry"
)

const (
	MsgExtracted = "PDF text extracted! Click 'Analyze Resume' to parse the information."
	MsgAnalyzed  = "Resume analyzed successfully! Please review and save."
	MsgSaved     = "Profile saved successfully!"
	MsgUploaded  = "Resume uploaded successfully!"
)

var (
	// ErrNoResumeText is returned by Analyze when there is nothing to analyze.
	ErrNoResumeText = errors.New("Please enter or paste your resume text")
	// ErrNoResume is returned when the draft has no uploaded resume file.
	ErrNoResume = errors.New("no resume file has been uploaded")

	errNoResumeStorage = errors.New("resume storage not configured")
)

// TextExtractor turns document bytes into plain text.
type TextExtractor func(ctx context.Context, data []byte, mimeType, fileName string) (string, error)

// Result is returned by the pipeline steps.
type Result struct {
	Snapshot
	Message string          `json:"message,omitempty"`
	Warning string          `json:"warning,omitempty"`
	Resume  *resumes.Resume `json:"resume,omitempty"`
}

type Service struct {
	Editors    *Manager
	Gateway    *profilestore.Gateway
	Extract    TextExtractor
	LLM        llm.Client
	Reconciler profile.Reconciler
	Uploader   *resumes.Uploader
}

func NewService(gateway *profilestore.Gateway, client llm.Client, reconciler profile.Reconciler, uploader *resumes.Uploader) *Service {
	if client == nil {
		client = llm.UnavailableClient{}
	}
	if reconciler == nil {
		reconciler = profile.Overwrite{}
	}
	s := &Service{
		Editors:    NewManager(gateway),
		Gateway:    gateway,
		Extract:    extract.ExtractText,
		LLM:        client,
		Reconciler: reconciler,
		Uploader:   uploader,
	}
	s.Editors.OnLoad = s.refreshResumeURL
	return s
}

// Load discards the in-memory draft and reads it again from storage.
func (s *Service) Load(ctx context.Context, userID string) (Snapshot, error) {
	return s.Editors.Editor(userID).Reload(ctx)
}

// Draft returns the current draft, loading it on first access.
func (s *Service) Draft(ctx context.Context, userID string) Snapshot {
	return s.Editors.Editor(userID).Snapshot(ctx)
}

// Replace swaps in a whole draft supplied by the client. Its skills are
// cleaned like any other edit.
func (s *Service) Replace(ctx context.Context, userID string, d profile.Draft) (Snapshot, error) {
	return s.edit(ctx, userID, func(profile.Draft) (profile.Draft, error) { return d, nil })
}

// SetFields applies scalar field edits in order. Nothing is applied if any
// name is unknown.
func (s *Service) SetFields(ctx context.Context, userID string, fields []FieldValue) (Snapshot, error) {
	return s.edit(ctx, userID, func(d profile.Draft) (profile.Draft, error) {
		var err error
		for _, f := range fields {
			if d, err = d.SetField(f.Field, f.Value); err != nil {
				return d, err
			}
		}
		return d, nil
	})
}

// FieldValue is one scalar field edit.
type FieldValue struct {
	Field string
	Value string
}

func (s *Service) AddSkill(ctx context.Context, userID, skill string) (Snapshot, error) {
	return s.edit(ctx, userID, func(d profile.Draft) (profile.Draft, error) { return d.AddSkill(skill), nil })
}

func (s *Service) RemoveSkill(ctx context.Context, userID, skill string) (Snapshot, error) {
	return s.edit(ctx, userID, func(d profile.Draft) (profile.Draft, error) { return d.RemoveSkill(skill), nil })
}

func (s *Service) AddExperience(ctx context.Context, userID string) (Snapshot, error) {
	return s.edit(ctx, userID, func(d profile.Draft) (profile.Draft, error) { return d.AddExperience(), nil })
}

func (s *Service) UpdateExperience(ctx context.Context, userID string, index int, field string, value *string) (Snapshot, error) {
	return s.edit(ctx, userID, func(d profile.Draft) (profile.Draft, error) { return d.UpdateExperience(index, field, value) })
}

func (s *Service) RemoveExperience(ctx context.Context, userID string, index int) (Snapshot, error) {
	return s.edit(ctx, userID, func(d profile.Draft) (profile.Draft, error) { return d.RemoveExperience(index) })
}

func (s *Service) AddEducation(ctx context.Context, userID string) (Snapshot, error) {
	return s.edit(ctx, userID, func(d profile.Draft) (profile.Draft, error) { return d.AddEducation(), nil })
}

func (s *Service) UpdateEducation(ctx context.Context, userID string, index int, field string, value *string) (Snapshot, error) {
	return s.edit(ctx, userID, func(d profile.Draft) (profile.Draft, error) { return d.UpdateEducation(index, field, value) })
}

func (s *Service) RemoveEducation(ctx context.Context, userID string, index int) (Snapshot, error) {
	return s.edit(ctx, userID, func(d profile.Draft) (profile.Draft, error) { return d.RemoveEducation(index) })
}

func (s *Service) edit(ctx context.Context, userID string, fn func(profile.Draft) (profile.Draft, error)) (Snapshot, error) {
	return s.Editors.Editor(userID).Update(ctx, fn)
}

// SetResumeText stores text typed or pasted by the user for analysis.
func (s *Service) SetResumeText(ctx context.Context, userID, text string) Snapshot {
	return s.Editors.Editor(userID).SetResumeText(ctx, text)
}

// ExtractText reads a document into the pending resume text.
func (s *Service) ExtractText(ctx context.Context, userID string, data []byte, mimeType, fileName string) (Result, error) {
	ed := s.Editors.Editor(userID)
	if _, err := ed.begin(ctx); err != nil {
		return Result{}, err
	}
	defer ed.end()

	text, err := s.extract(ctx, data, mimeType, fileName)
	if err != nil {
		return Result{}, err
	}
	snap := ed.SetResumeText(ctx, text)
	return Result{Snapshot: snap, Message: MsgExtracted}, nil
}

func (s *Service) extract(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	text, err := s.Extract(ctx, data, mimeType, fileName)
	switch {
	case err == nil:
		metrics.IncExtraction("ok")
	case errors.Is(err, extract.ErrUnsupportedFormat):
		metrics.IncExtraction("unsupported")
	case errors.Is(err, extract.ErrEmptyExtraction):
		metrics.IncExtraction("empty")
	default:
		metrics.IncExtraction("error")
	}
	return text, err
}

// Analyze sends the pending resume text to the extraction service and folds
// the result into the draft. The pending text is cleared on success only.
func (s *Service) Analyze(ctx context.Context, userID string) (Result, error) {
	ed := s.Editors.Editor(userID)
	snap, err := ed.begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer ed.end()

	if strings.TrimSpace(snap.ResumeText) == "" {
		return Result{}, ErrNoResumeText
	}

	start := time.Now()
	extracted, err := s.LLM.ExtractProfile(ctx, snap.ResumeText)
	metrics.ObserveAnalysisDuration(time.Since(start))
	if err != nil {
		metrics.IncAnalysis(analysisResult(err))
		telemetry.Warn("profile.analyze.failed", map[string]any{
			"user_id": userID,
			"error":   err,
		})
		return Result{}, err
	}
	metrics.IncAnalysis("ok")
	extracted = extracted.NormalizeDates()

	ed.mu.Lock()
	ed.draft = s.Reconciler.Reconcile(ed.draft, extracted).Normalize().CleanSkills()
	ed.resumeText = ""
	ed.markDirtyLocked()
	out := ed.snapshotLocked()
	ed.mu.Unlock()

	return Result{Snapshot: out, Message: MsgAnalyzed}, nil
}

func analysisResult(err error) string {
	var svcErr *llm.ServiceError
	switch {
	case errors.Is(err, llm.ErrMissingCredential):
		return "missing_credential"
	case errors.As(err, &svcErr):
		return "service_error"
	case errors.Is(err, llm.ErrEmptyResponse), errors.Is(err, llm.ErrMalformedResponse):
		return "bad_response"
	default:
		return "error"
	}
}

// UploadResume stores the file, records its URL on the draft and then tries
// to extract its text. Extraction failure does not fail the upload.
func (s *Service) UploadResume(ctx context.Context, userID, fileName, contentType string, data []byte) (Result, error) {
	if s.Uploader == nil {
		return Result{}, errNoResumeStorage
	}
	switch extract.DetectFormat(contentType, fileName, data) {
	case extract.MimePDF, extract.MimeDOCX:
	default:
		return Result{}, fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, fileName)
	}

	ed := s.Editors.Editor(userID)
	if _, err := ed.begin(ctx); err != nil {
		return Result{}, err
	}
	defer ed.end()

	res, err := s.Uploader.Upload(ctx, userID, fileName, contentType, bytes.NewReader(data))
	if err != nil {
		metrics.IncResumeUpload("failed")
		return Result{}, err
	}
	metrics.IncResumeUpload(string(res.Kind))

	ed.mu.Lock()
	ed.draft = ed.draft.WithResume(res.URL, res.Path)
	ed.markDirtyLocked()
	ed.mu.Unlock()

	out := Result{Resume: &res, Message: MsgUploaded + " " + MsgExtracted}
	text, err := s.extract(ctx, data, contentType, fileName)
	if err != nil {
		telemetry.Warn("profile.upload.extract_failed", map[string]any{
			"user_id": userID,
			"path":    res.Path,
			"error":   err,
		})
		out.Message = MsgUploaded
		out.Warning = err.Error()
		out.Snapshot = ed.Snapshot(ctx)
		return out, nil
	}
	out.Snapshot = ed.SetResumeText(ctx, text)
	return out, nil
}

// Save validates the draft and persists it. A *profile.ValidationError
// leaves storage untouched.
func (s *Service) Save(ctx context.Context, userID string) (Result, error) {
	ed := s.Editors.Editor(userID)
	snap, err := ed.begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer ed.end()

	if err := profile.Validate(snap.Draft); err != nil {
		return Result{}, err
	}
	if s.Gateway == nil {
		return Result{}, profilestore.ErrPersistenceFailed
	}
	outcome, err := s.Gateway.Save(ctx, userID, snap.Draft)
	if err != nil {
		return Result{}, err
	}

	ed.mu.Lock()
	ed.source = outcome.Source
	ed.markSavedLocked(snap)
	out := ed.snapshotLocked()
	ed.mu.Unlock()
	return Result{Snapshot: out, Message: MsgSaved}, nil
}

// RefreshResumeURL mints a fresh URL for the uploaded resume. Signed URLs
// expire; the stored object path does not.
func (s *Service) RefreshResumeURL(ctx context.Context, userID string) (Result, error) {
	if s.Uploader == nil {
		return Result{}, errNoResumeStorage
	}
	ed := s.Editors.Editor(userID)
	key := ed.Snapshot(ctx).Draft.ResumePath
	if strings.TrimSpace(key) == "" {
		return Result{}, ErrNoResume
	}
	res, err := s.Uploader.ResolveURL(ctx, key)
	if err != nil {
		return Result{}, err
	}
	snap, err := ed.Update(ctx, func(d profile.Draft) (profile.Draft, error) {
		if d.ResumePath != key {
			return d, nil
		}
		return d.WithResume(res.URL, key), nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Snapshot: snap, Resume: &res}, nil
}

// refreshResumeURL runs on every draft read from storage so a stale signed
// URL is never handed out. Failures keep the stored URL.
func (s *Service) refreshResumeURL(ctx context.Context, d profile.Draft) profile.Draft {
	key := strings.TrimSpace(d.ResumePath)
	if s.Uploader == nil || key == "" {
		return d
	}
	res, err := s.Uploader.ResolveURL(ctx, key)
	if err != nil {
		telemetry.Warn("profile.resume_url.refresh_failed", map[string]any{
			"path":  key,
			"error": err,
		})
		return d
	}
	return d.WithResume(res.URL, d.ResumePath)
}
