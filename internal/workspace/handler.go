package workspace

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"profile-backend/internal/extract"
	"profile-backend/internal/llm"
	"profile-backend/internal/profile"
	"profile-backend/internal/profilestore"
	"profile-backend/internal/resumes"
	"profile-backend/internal/shared/server/middleware"
	"profile-backend/internal/shared/server/respond"
)

const maxDocumentBytes = resumes.MaxUploadBytes

// Handler wires the profile routes to the service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches profile routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.get)
	rg.PUT("/profile", h.replace)
	rg.PATCH("/profile/fields", h.setFields)

	rg.POST("/profile/skills", h.addSkill)
	rg.DELETE("/profile/skills", h.removeSkill)

	rg.POST("/profile/experience", h.addExperience)
	rg.PATCH("/profile/experience/:index", h.updateExperience)
	rg.DELETE("/profile/experience/:index", h.removeExperience)

	rg.POST("/profile/education", h.addEducation)
	rg.PATCH("/profile/education/:index", h.updateEducation)
	rg.DELETE("/profile/education/:index", h.removeEducation)

	rg.POST("/profile/resume-text", h.setResumeText)
	rg.POST("/profile/extract", h.extractText)
	rg.POST("/profile/analyze", h.analyze)
	rg.POST("/profile/resume", h.uploadResume)
	rg.POST("/profile/resume/url", h.refreshResumeURL)
	rg.POST("/profile/save", h.save)
}

// get returns the current draft; ?reload=true reads it again from storage.
func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if reload, _ := strconv.ParseBool(c.Query("reload")); reload {
		snap, err := h.Svc.Load(c.Request.Context(), userID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set("profileSource", string(snap.Source))
		respond.OK(c, snap)
		return
	}
	snap := h.Svc.Draft(c.Request.Context(), userID)
	c.Set("profileSource", string(snap.Source))
	respond.OK(c, snap)
}

func (h *Handler) replace(c *gin.Context) {
	var d profile.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.respondSnapshot(c, func(ctx context.Context, userID string) (Snapshot, error) {
		return h.Svc.Replace(ctx, userID, d)
	})
}

func (h *Handler) setFields(c *gin.Context) {
	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	names := make([]string, 0, len(body))
	for name := range body {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]FieldValue, 0, len(names))
	for _, name := range names {
		fields = append(fields, FieldValue{Field: name, Value: body[name]})
	}
	h.respondSnapshot(c, func(ctx context.Context, userID string) (Snapshot, error) {
		return h.Svc.SetFields(ctx, userID, fields)
	})
}

type skillRequest struct {
	Skill string `json:"skill"`
}

func (h *Handler) addSkill(c *gin.Context) {
	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.respondSnapshot(c, func(ctx context.Context, userID string) (Snapshot, error) {
		return h.Svc.AddSkill(ctx, userID, req.Skill)
	})
}

func (h *Handler) removeSkill(c *gin.Context) {
	skill := c.Query("skill")
	if skill == "" {
		var req skillRequest
		_ = c.ShouldBindJSON(&req)
		skill = req.Skill
	}
	if skill == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "skill is required", nil)
		return
	}
	h.respondSnapshot(c, func(ctx context.Context, userID string) (Snapshot, error) {
		return h.Svc.RemoveSkill(ctx, userID, skill)
	})
}

// entryUpdate carries one field of an experience or education entry. A JSON
// null value clears an end date.
type entryUpdate struct {
	Field string  `json:"field"`
	Value *string `json:"value"`
}

func (h *Handler) addExperience(c *gin.Context) {
	h.respondSnapshot(c, h.Svc.AddExperience)
}

func (h *Handler) updateExperience(c *gin.Context) {
	index, req, ok := bindEntryUpdate(c)
	if !ok {
		return
	}
	h.respondSnapshot(c, func(ctx context.Context, userID string) (Snapshot, error) {
		return h.Svc.UpdateExperience(ctx, userID, index, req.Field, req.Value)
	})
}

func (h *Handler) removeExperience(c *gin.Context) {
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	h.respondSnapshot(c, func(ctx context.Context, userID string) (Snapshot, error) {
		return h.Svc.RemoveExperience(ctx, userID, index)
	})
}

func (h *Handler) addEducation(c *gin.Context) {
	h.respondSnapshot(c, h.Svc.AddEducation)
}

func (h *Handler) updateEducation(c *gin.Context) {
	index, req, ok := bindEntryUpdate(c)
	if !ok {
		return
	}
	h.respondSnapshot(c, func(ctx context.Context, userID string) (Snapshot, error) {
		return h.Svc.UpdateEducation(ctx, userID, index, req.Field, req.Value)
	})
}

func (h *Handler) removeEducation(c *gin.Context) {
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	h.respondSnapshot(c, func(ctx context.Context, userID string) (Snapshot, error) {
		return h.Svc.RemoveEducation(ctx, userID, index)
	})
}

type resumeTextRequest struct {
	Text string `json:"text"`
}

func (h *Handler) setResumeText(c *gin.Context) {
	var req resumeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	respond.OK(c, h.Svc.SetResumeText(c.Request.Context(), middleware.UserIDFromContext(c), req.Text))
}

func (h *Handler) extractText(c *gin.Context) {
	doc, ok := readDocument(c)
	if !ok {
		return
	}
	res, err := h.Svc.ExtractText(c.Request.Context(), middleware.UserIDFromContext(c), doc.data, doc.contentType, doc.fileName)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) analyze(c *gin.Context) {
	res, err := h.Svc.Analyze(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) uploadResume(c *gin.Context) {
	doc, ok := readDocument(c)
	if !ok {
		return
	}
	res, err := h.Svc.UploadResume(c.Request.Context(), middleware.UserIDFromContext(c), doc.fileName, doc.contentType, doc.data)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, res)
}

func (h *Handler) save(c *gin.Context) {
	res, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("profileSource", string(res.Source))
	respond.OK(c, res)
}

func (h *Handler) refreshResumeURL(c *gin.Context) {
	res, err := h.Svc.RefreshResumeURL(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) respondSnapshot(c *gin.Context, fn func(ctx context.Context, userID string) (Snapshot, error)) {
	snap, err := fn(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

func pathIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "index must be an integer", nil)
		return 0, false
	}
	return index, true
}

func bindEntryUpdate(c *gin.Context) (int, entryUpdate, bool) {
	index, ok := pathIndex(c)
	if !ok {
		return 0, entryUpdate{}, false
	}
	var req entryUpdate
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Field) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "field is required", nil)
		return 0, entryUpdate{}, false
	}
	return index, req, true
}

type document struct {
	fileName    string
	contentType string
	data        []byte
}

func readDocument(c *gin.Context) (document, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return document{}, false
	}
	if fileHeader.Size > maxDocumentBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", resumes.ErrTooLarge.Error(), nil)
		return document{}, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return document{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return document{}, false
	}
	if len(data) > maxDocumentBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", resumes.ErrTooLarge.Error(), nil)
		return document{}, false
	}
	return document{
		fileName:    fileHeader.Filename,
		contentType: fileHeader.Header.Get("Content-Type"),
		data:        data,
	}, true
}

func writeError(c *gin.Context, err error) {
	var validationErr *profile.ValidationError
	var serviceErr *llm.ServiceError
	switch {
	case errors.As(err, &validationErr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", validationErr.Message,
			gin.H{"field": validationErr.Field})
	case errors.Is(err, ErrNoResumeText):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, profile.ErrIndexOutOfRange), errors.Is(err, profile.ErrUnknownField):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, extract.ErrUnsupportedFormat):
		respond.Error(c, http.StatusBadRequest, "unsupported_format", "Please upload a PDF or DOCX file", nil)
	case errors.Is(err, extract.ErrEmptyExtraction):
		respond.Error(c, http.StatusUnprocessableEntity, "empty_extraction", err.Error(), nil)
	case errors.Is(err, resumes.ErrInvalidFileName):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
	case errors.Is(err, resumes.ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), nil)
	case errors.Is(err, ErrNoResume):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, errNoResumeStorage):
		respond.Error(c, http.StatusServiceUnavailable, "storage_unavailable", err.Error(), nil)
	case errors.Is(err, resumes.ErrNoURL):
		respond.Error(c, http.StatusBadGateway, "storage_failed", "Could not create a link to the resume file", nil)
	case errors.Is(err, ErrBusy):
		respond.Error(c, http.StatusConflict, "busy", err.Error(), nil)
	case errors.Is(err, llm.ErrMissingCredential):
		respond.Error(c, http.StatusServiceUnavailable, "extraction_unavailable", "OpenAI API key not configured", nil)
	case errors.As(err, &serviceErr):
		respond.Error(c, http.StatusBadGateway, "extraction_failed", serviceErr.Error(), gin.H{"status": serviceErr.Status})
	case errors.Is(err, llm.ErrEmptyResponse), errors.Is(err, llm.ErrMalformedResponse):
		respond.Error(c, http.StatusBadGateway, "extraction_failed", err.Error(), nil)
	case errors.Is(err, profilestore.ErrPersistenceFailed):
		respond.Error(c, http.StatusInternalServerError, "persistence_failed", "Failed to save profile. Please try again.", nil)
	case errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusGatewayTimeout, "timeout", "operation timed out", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
