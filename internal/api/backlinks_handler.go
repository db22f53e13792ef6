package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	infragin "github.com/huzhengnan/website-monitor-sub000/infrastructure/gin"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const (
	entityBacklinkSite = "backlink site"
	entityRecomputeJob = "recompute job"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (r *Router) listBacklinkSites(c *gin.Context) {
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}

	filter := models.BacklinkSiteFilter{
		Limit:        pageSize,
		Offset:       (page - 1) * pageSize,
		Search:       strings.TrimSpace(c.Query("search")),
		FavoriteOnly: c.Query("favorite") == "true",
		SortBy:       c.Query("sortBy"),
		SortOrder:    c.Query("sortOrder"),
	}
	sites, total, err := r.svc.Backlinks.List(c.Request.Context(), filter)
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"backlinkSites": sites,
		"total":         total,
		"page":          page,
		"pageSize":      pageSize,
	})
}

// createBacklinkSite returns 201 for a new site and 200 when the URL was
// merged into a site already tracked for its domain.
func (r *Router) createBacklinkSite(c *gin.Context) {
	var req models.BacklinkSiteCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := r.svc.Backlinks.Create(c.Request.Context(), &req)
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "create")
		return
	}

	if result.Merged {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (r *Router) getBacklinkSite(c *gin.Context) {
	id, ok := parseUUID(c, "id", entityBacklinkSite)
	if !ok {
		return
	}

	site, err := r.svc.Backlinks.Get(c.Request.Context(), id)
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "get")
		return
	}
	c.JSON(http.StatusOK, site)
}

func (r *Router) updateBacklinkSite(c *gin.Context) {
	id, ok := parseUUID(c, "id", entityBacklinkSite)
	if !ok {
		return
	}
	var req models.BacklinkSiteUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	site, err := r.svc.Backlinks.Update(c.Request.Context(), id, &req)
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "update")
		return
	}
	c.JSON(http.StatusOK, site)
}

func (r *Router) deleteBacklinkSite(c *gin.Context) {
	id, ok := parseUUID(c, "id", entityBacklinkSite)
	if !ok {
		return
	}

	if err := r.svc.Backlinks.Delete(c.Request.Context(), id); err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "delete")
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) fetchMetadata(c *gin.Context) {
	id, ok := parseUUID(c, "id", entityBacklinkSite)
	if !ok {
		return
	}

	result, err := r.svc.Backlinks.FetchMetadata(c.Request.Context(), id)
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "fetch metadata for")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) importSemrush(c *gin.Context) {
	var req models.SemrushImportRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := r.svc.Backlinks.ImportSemrush(c.Request.Context(), &req)
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "import")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) importGSC(c *gin.Context) {
	var req models.GSCImportRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := r.svc.Backlinks.ImportGSC(c.Request.Context(), &req)
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "import")
		return
	}
	c.JSON(http.StatusOK, result)
}

// importExcel reads an XLSX upload from the "file" form field.
func (r *Router) importExcel(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, r.cfg.Import.MaxFileSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file must be uploaded in the \"file\" field", "field": "file"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .xlsx files are supported", "field": "file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "read upload for")
		return
	}
	defer file.Close()

	result, err := r.svc.Backlinks.ImportExcel(c.Request.Context(), file)
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "import")
		return
	}

	infragin.RequestLogger(c, r.logger).Info("Backlink sites imported from spreadsheet",
		infralogger.String("filename", fileHeader.Filename),
		infralogger.Int("created", result.Created),
		infralogger.Int("updated", result.Updated),
		infralogger.Int("failed", result.Failed),
	)
	c.JSON(http.StatusOK, result)
}

func (r *Router) exportExcel(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="backlink-sites.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	if err := r.svc.Backlinks.ExportExcel(c.Request.Context(), c.Writer); err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "export")
	}
}

func (r *Router) dedupeBacklinkSites(c *gin.Context) {
	result, err := r.svc.Backlinks.Dedupe(c.Request.Context())
	if err != nil {
		r.errs.handle(c, err, entityBacklinkSite, "deduplicate")
		return
	}
	c.JSON(http.StatusOK, result)
}

type recomputeRequest struct {
	ResumeJobID string `json:"resumeJobId"`
}

// startRecompute starts a background recompute, or resumes one when
// resumeJobId is given, and answers 202 with the job.
func (r *Router) startRecompute(c *gin.Context) {
	var req recomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var resume *uuid.UUID
	if req.ResumeJobID != "" {
		id, err := uuid.Parse(req.ResumeJobID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resumeJobId must be a valid UUID", "field": "resumeJobId"})
			return
		}
		resume = &id
	}

	// The request context only opens the job; the run uses the recomputer's own.
	job, err := r.svc.Recomputer.Start(c.Request.Context(), resume)
	if err != nil {
		r.errs.handle(c, err, entityRecomputeJob, "start")
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (r *Router) getRecompute(c *gin.Context) {
	id, ok := parseUUID(c, "jobId", entityRecomputeJob)
	if !ok {
		return
	}

	job, err := r.svc.Recomputer.Get(c.Request.Context(), id)
	if err != nil {
		r.errs.handle(c, err, entityRecomputeJob, "get")
		return
	}
	c.JSON(http.StatusOK, job)
}
