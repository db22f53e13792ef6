package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	infragin "github.com/huzhengnan/website-monitor-sub000/infrastructure/gin"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/service"
)

const entitySite = "site"

func (r *Router) listSites(c *gin.Context) {
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}

	filter := models.SiteFilter{
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
		Search:    strings.TrimSpace(c.Query("search")),
		Status:    models.SiteStatus(c.Query("status")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	sites, total, err := r.svc.Sites.List(c.Request.Context(), filter)
	if err != nil {
		r.errs.handle(c, err, entitySite, "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sites":    sites,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func (r *Router) createSite(c *gin.Context) {
	var req models.SiteCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	site, err := r.svc.Sites.Create(c.Request.Context(), &req)
	if err != nil {
		r.errs.handle(c, err, entitySite, "create")
		return
	}

	infragin.RequestLogger(c, r.logger).Info("Site created",
		infralogger.SiteID(site.ID.String()),
		infralogger.String("domain", site.Domain),
	)
	c.JSON(http.StatusCreated, site)
}

func (r *Router) getSite(c *gin.Context) {
	id, ok := parseUUID(c, "id", entitySite)
	if !ok {
		return
	}

	site, err := r.svc.Sites.Get(c.Request.Context(), id)
	if err != nil {
		r.errs.handle(c, err, entitySite, "get")
		return
	}
	c.JSON(http.StatusOK, site)
}

func (r *Router) updateSite(c *gin.Context) {
	id, ok := parseUUID(c, "id", entitySite)
	if !ok {
		return
	}
	var req models.SiteUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	site, err := r.svc.Sites.Update(c.Request.Context(), id, &req)
	if err != nil {
		r.errs.handle(c, err, entitySite, "update")
		return
	}
	c.JSON(http.StatusOK, site)
}

func (r *Router) deleteSite(c *gin.Context) {
	id, ok := parseUUID(c, "id", entitySite)
	if !ok {
		return
	}

	if err := r.svc.Sites.Delete(c.Request.Context(), id); err != nil {
		r.errs.handle(c, err, entitySite, "delete")
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) exportSites(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="sites.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	if err := r.svc.Exporter.Sites(c.Request.Context(), c.Writer); err != nil {
		r.errs.handle(c, err, entitySite, "export")
	}
}

// batchMetrics serves GET /sites/metrics. Exactly one of siteIds or page
// selects the sites.
func (r *Router) batchMetrics(c *gin.Context) {
	days, ok := queryInt(c, "days", defaultDays, 1, maxDays)
	if !ok {
		return
	}
	window, err := r.svc.Metrics.Window(days, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		r.errs.handle(c, err, entitySite, "load metrics for")
		return
	}

	q := service.BatchQuery{
		Window:    window,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	rawIDs, hasIDs := c.GetQuery("siteIds")
	_, hasPage := c.GetQuery("page")
	if hasIDs == hasPage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of siteIds or page must be given"})
		return
	}

	if hasIDs {
		for _, raw := range splitList(rawIDs) {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "siteIds must be valid UUIDs", "field": "siteIds"})
				return
			}
			q.SiteIDs = append(q.SiteIDs, id)
		}
		if len(q.SiteIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "siteIds must not be empty", "field": "siteIds"})
			return
		}
	} else {
		if q.Page, q.PageSize, ok = pagination(c); !ok {
			return
		}
	}

	result, err := r.svc.Metrics.Batch(c.Request.Context(), q)
	if err != nil {
		r.errs.handle(c, err, entitySite, "load metrics for")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) siteMetrics(c *gin.Context) {
	id, ok := parseUUID(c, "id", entitySite)
	if !ok {
		return
	}
	days, ok := queryInt(c, "days", defaultDays, 1, maxDays)
	if !ok {
		return
	}
	window, err := r.svc.Metrics.Window(days, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		r.errs.handle(c, err, entitySite, "load metrics for")
		return
	}

	detail, err := r.svc.Metrics.Site(c.Request.Context(), id, window)
	if err != nil {
		r.errs.handle(c, err, entitySite, "load metrics for")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (r *Router) upsertTraffic(c *gin.Context) {
	id, ok := parseUUID(c, "id", entitySite)
	if !ok {
		return
	}
	var req models.TrafficUpsertRequest
	if !bindJSON(c, &req) {
		return
	}

	row, err := r.svc.Sites.UpsertTraffic(c.Request.Context(), id, &req)
	if err != nil {
		r.errs.handle(c, err, "traffic data", "save")
		return
	}
	c.JSON(http.StatusOK, row)
}

func (r *Router) upsertSearchConsole(c *gin.Context) {
	id, ok := parseUUID(c, "id", entitySite)
	if !ok {
		return
	}
	var req models.SearchConsoleUpsertRequest
	if !bindJSON(c, &req) {
		return
	}

	row, err := r.svc.Sites.UpsertSearchConsole(c.Request.Context(), id, &req)
	if err != nil {
		r.errs.handle(c, err, "search console data", "save")
		return
	}
	c.JSON(http.StatusOK, row)
}
