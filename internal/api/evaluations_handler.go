package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/scoring"
)

const entityEvaluation = "evaluation"

func (r *Router) listEvaluations(c *gin.Context) {
	siteID, ok := parseUUID(c, "id", entitySite)
	if !ok {
		return
	}

	evaluations, err := r.svc.Evaluations.List(c.Request.Context(), siteID)
	if err != nil {
		r.errs.handle(c, err, entitySite, "list evaluations for")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"evaluations": evaluations,
		"count":       len(evaluations),
	})
}

func (r *Router) createEvaluation(c *gin.Context) {
	siteID, ok := parseUUID(c, "id", entitySite)
	if !ok {
		return
	}
	var req models.EvaluationCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	evaluation, err := r.svc.Evaluations.Create(c.Request.Context(), siteID, &req)
	if err != nil {
		r.errs.handle(c, err, entityEvaluation, "create")
		return
	}
	c.JSON(http.StatusCreated, evaluation)
}

func (r *Router) evaluationTrend(c *gin.Context) {
	siteID, ok := parseUUID(c, "id", entitySite)
	if !ok {
		return
	}

	trend, err := r.svc.Evaluations.Trend(c.Request.Context(), siteID)
	if err != nil {
		r.errs.handle(c, err, entitySite, "compute trend for")
		return
	}
	c.JSON(http.StatusOK, trend)
}

func (r *Router) deleteEvaluation(c *gin.Context) {
	id, ok := parseUUID(c, "id", entityEvaluation)
	if !ok {
		return
	}

	if err := r.svc.Evaluations.Delete(c.Request.Context(), id); err != nil {
		r.errs.handle(c, err, entityEvaluation, "delete")
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) leaderboard(c *gin.Context) {
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}

	result, err := r.svc.Evaluations.Leaderboard(c.Request.Context(), c.DefaultQuery("dimension", scoring.DimensionComposite), page, pageSize)
	if err != nil {
		r.errs.handle(c, err, "leaderboard", "build")
		return
	}
	c.JSON(http.StatusOK, result)
}
