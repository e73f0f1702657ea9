// controller/entity_controller.go
package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datakaveri/dx-resource-server-sub002/audit"
	"github.com/datakaveri/dx-resource-server-sub002/cache"
	"github.com/datakaveri/dx-resource-server-sub002/catalogue"
	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
	"github.com/datakaveri/dx-resource-server-sub002/middleware"
	"github.com/datakaveri/dx-resource-server-sub002/model"
	"github.com/datakaveri/dx-resource-server-sub002/pipeline"
	"github.com/datakaveri/dx-resource-server-sub002/quota"
	"github.com/datakaveri/dx-resource-server-sub002/util"
)

// EntityController serves the consumer read surface. The handlers stay thin:
// query execution belongs to the resource adapters, this layer resolves
// admission, grouping attributes and usage accounting.
type EntityController struct {
	pipeline   *pipeline.Pipeline
	attributes *catalogue.AttributeCache
	meter      *quota.Meter
	audit      audit.Service
}

func NewEntityController(p *pipeline.Pipeline, attributes *catalogue.AttributeCache, meter *quota.Meter, auditSvc audit.Service) *EntityController {
	return &EntityController{
		pipeline:   p,
		attributes: attributes,
		meter:      meter,
		audit:      auditSvc,
	}
}

func (ctl *EntityController) RegisterRoutes(rg *gin.RouterGroup) {
	read := pipeline.Endpoint{
		AllowedRoles: []model.Role{model.RoleConsumer, model.RoleAdmin},
		AccessClass:  model.AccessClassAPI,
	}
	rg.GET("/entities/:id",
		middleware.Admission(ctl.pipeline, read, nil),
		ctl.GetEntity)
	rg.GET("/entities/:id/latest",
		middleware.Admission(ctl.pipeline, read, nil),
		ctl.GetLatest)
}

// GetEntity handles a metered entity read.
func (ctl *EntityController) GetEntity(c *gin.Context) {
	adm, ok := middleware.AdmissionFromContext(c)
	if !ok {
		util.RespondWithError(c, http.StatusInternalServerError, "admission result missing", nil)
		return
	}

	util.RespondWithResult(c, http.StatusOK, []gin.H{{
		"id":                     adm.Resource.ID,
		"resourceGroup":          adm.Resource.ResourceGroupID,
		"itemType":               adm.Resource.ItemType,
		"supportsTemporalFilter": adm.Resource.SupportsTemporalFilter,
	}})

	ctl.recordUsage(c, adm, model.AccessClassAPI)
}

// GetLatest handles a latest-data read. The grouping attribute defaults to
// the resource group and is overridden by an operator-defined unique
// attribute when one exists.
func (ctl *EntityController) GetLatest(c *gin.Context) {
	adm, ok := middleware.AdmissionFromContext(c)
	if !ok {
		util.RespondWithError(c, http.StatusInternalServerError, "admission result missing", nil)
		return
	}

	groupAttribute := "id"
	attribute, err := ctl.attributes.Get(c.Request.Context(), adm.ResourceID)
	switch {
	case err == nil:
		groupAttribute = attribute
	case !errors.Is(err, cache.ErrNotFound):
		logger.Warn("Unique attribute lookup failed, using default grouping",
			zap.String("resource", adm.ResourceID),
			zap.Error(err))
	}

	util.RespondWithResult(c, http.StatusOK, []gin.H{{
		"id":              adm.Resource.ID,
		"groupAttribute":  groupAttribute,
		"observationTime": time.Now().UTC().Format(time.RFC3339),
	}})

	ctl.recordUsage(c, adm, model.AccessClassAPI)
}

// recordUsage meters the response and queues the access log. Only metered
// consumption (the quota check read counters) is charged; auditing happens
// either way and never affects the response.
func (ctl *EntityController) recordUsage(c *gin.Context, adm *pipeline.Admission, class model.AccessClass) {
	responseBytes := int64(c.Writer.Size())

	if adm.Quota != nil {
		if err := ctl.meter.RecordCall(c.Request.Context(), adm.Claims.Subject, adm.ResourceID, responseBytes); err != nil {
			logger.Warn("Failed to record usage", zap.Error(err))
		}
	}

	log := audit.AccessLog{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Subject:       adm.Claims.Subject,
		Role:          string(adm.Claims.Role),
		ResourceID:    adm.ResourceID,
		ResourceGroup: adm.Resource.ResourceGroupID,
		Endpoint:      c.FullPath(),
		Method:        c.Request.Method,
		AccessClass:   string(class),
		ResponseBytes: responseBytes,
	}
	// Detached: the caller may already have disconnected.
	go ctl.audit.LogAccess(context.Background(), log)
}
