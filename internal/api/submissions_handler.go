package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const entitySubmission = "submission"

// submissionFilter reads siteId, backlinkSiteId and status.
func submissionFilter(c *gin.Context) (models.SubmissionFilter, bool) {
	var filter models.SubmissionFilter
	var ok bool
	if filter.SiteID, ok = queryUUID(c, "siteId"); !ok {
		return filter, false
	}
	if filter.BacklinkSiteID, ok = queryUUID(c, "backlinkSiteId"); !ok {
		return filter, false
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = models.SubmissionStatus(raw)
		if !filter.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown submission status", "field": "status"})
			return filter, false
		}
	}
	return filter, true
}

func (r *Router) listSubmissions(c *gin.Context) {
	filter, ok := submissionFilter(c)
	if !ok {
		return
	}

	submissions, err := r.svc.Submissions.List(c.Request.Context(), filter)
	if err != nil {
		r.errs.handle(c, err, entitySubmission, "list")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"count":       len(submissions),
	})
}

func (r *Router) createSubmission(c *gin.Context) {
	var req models.SubmissionCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	submission, err := r.svc.Submissions.Create(c.Request.Context(), &req)
	if err != nil {
		r.errs.handle(c, err, entitySubmission, "create")
		return
	}
	c.JSON(http.StatusCreated, submission)
}

func (r *Router) updateSubmission(c *gin.Context) {
	id, ok := parseUUID(c, "id", entitySubmission)
	if !ok {
		return
	}
	var req models.SubmissionUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	submission, err := r.svc.Submissions.Update(c.Request.Context(), id, &req)
	if err != nil {
		r.errs.handle(c, err, entitySubmission, "update")
		return
	}
	c.JSON(http.StatusOK, submission)
}

func (r *Router) deleteSubmission(c *gin.Context) {
	id, ok := parseUUID(c, "id", entitySubmission)
	if !ok {
		return
	}

	if err := r.svc.Submissions.Delete(c.Request.Context(), id); err != nil {
		r.errs.handle(c, err, entitySubmission, "delete")
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) pasteImport(c *gin.Context) {
	var req models.PasteImportRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := r.svc.Submissions.PasteImport(c.Request.Context(), &req)
	if err != nil {
		r.errs.handle(c, err, entitySubmission, "import")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) exportBacklinks(c *gin.Context) {
	filter, ok := submissionFilter(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="backlinks.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	if err := r.svc.Exporter.Backlinks(c.Request.Context(), c.Writer, filter); err != nil {
		r.errs.handle(c, err, entitySubmission, "export")
	}
}
