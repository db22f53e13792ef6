package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infragin "github.com/huzhengnan/website-monitor-sub000/infrastructure/gin"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/models"
)

const entityConnector = "connector"

func (r *Router) listConnectors(c *gin.Context) {
	siteID, ok := queryUUID(c, "siteId")
	if !ok {
		return
	}

	connectors, err := r.svc.Connectors.List(c.Request.Context(), siteID)
	if err != nil {
		r.errs.handle(c, err, entityConnector, "list")
		return
	}
	views := make([]models.ConnectorResponse, len(connectors))
	for i := range connectors {
		views[i] = models.NewConnectorResponse(&connectors[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"connectors": views,
		"count":      len(views),
	})
}

func (r *Router) createConnector(c *gin.Context) {
	var req models.ConnectorCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	connector, err := r.svc.Connectors.Create(c.Request.Context(), &req)
	if err != nil {
		r.errs.handle(c, err, entityConnector, "create")
		return
	}

	infragin.RequestLogger(c, r.logger).Info("Connector created",
		infralogger.ConnectorID(connector.ID.String()),
		infralogger.SiteID(connector.SiteID.String()),
		infralogger.String("type", string(connector.Type)),
	)
	c.JSON(http.StatusCreated, models.NewConnectorResponse(connector))
}

func (r *Router) getConnector(c *gin.Context) {
	id, ok := parseUUID(c, "id", entityConnector)
	if !ok {
		return
	}

	connector, err := r.svc.Connectors.Get(c.Request.Context(), id)
	if err != nil {
		r.errs.handle(c, err, entityConnector, "get")
		return
	}
	c.JSON(http.StatusOK, models.NewConnectorResponse(connector))
}

func (r *Router) updateConnector(c *gin.Context) {
	id, ok := parseUUID(c, "id", entityConnector)
	if !ok {
		return
	}
	var req models.ConnectorUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	connector, err := r.svc.Connectors.Update(c.Request.Context(), id, &req)
	if err != nil {
		r.errs.handle(c, err, entityConnector, "update")
		return
	}
	c.JSON(http.StatusOK, models.NewConnectorResponse(connector))
}

func (r *Router) deleteConnector(c *gin.Context) {
	id, ok := parseUUID(c, "id", entityConnector)
	if !ok {
		return
	}

	if err := r.svc.Connectors.Delete(c.Request.Context(), id); err != nil {
		r.errs.handle(c, err, entityConnector, "delete")
		return
	}
	c.Status(http.StatusNoContent)
}

// syncConnector runs one sync within the request.
func (r *Router) syncConnector(c *gin.Context) {
	id, ok := parseUUID(c, "id", entityConnector)
	if !ok {
		return
	}

	result, err := r.svc.Connectors.Sync(c.Request.Context(), id)
	if err != nil {
		r.errs.handle(c, err, entityConnector, "sync")
		return
	}
	c.JSON(http.StatusOK, result)
}
