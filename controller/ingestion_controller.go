// controller/ingestion_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/datakaveri/dx-resource-server-sub002/middleware"
	"github.com/datakaveri/dx-resource-server-sub002/model"
	"github.com/datakaveri/dx-resource-server-sub002/pipeline"
	"github.com/datakaveri/dx-resource-server-sub002/util"
)

// IngestionController gates adapter registration and deletion. Both mutate a
// provider-owned resource, so admission additionally validates that the
// acting subject is the owning provider or its delegate.
type IngestionController struct {
	pipeline *pipeline.Pipeline
}

func NewIngestionController(p *pipeline.Pipeline) *IngestionController {
	return &IngestionController{pipeline: p}
}

func (ctl *IngestionController) RegisterRoutes(rg *gin.RouterGroup) {
	mutate := pipeline.Endpoint{
		AllowedRoles:     []model.Role{model.RoleProvider, model.RoleDelegate, model.RoleAdmin},
		AccessClass:      model.AccessClassAPI,
		RequireOwnership: true,
	}
	rg.POST("/ingestion",
		middleware.Admission(ctl.pipeline, mutate, nil),
		ctl.RegisterAdapter)
	rg.DELETE("/ingestion/:id",
		middleware.Admission(ctl.pipeline, mutate, nil),
		ctl.DeleteAdapter)
}

func (ctl *IngestionController) RegisterAdapter(c *gin.Context) {
	adm, ok := middleware.AdmissionFromContext(c)
	if !ok {
		util.RespondWithError(c, http.StatusInternalServerError, "admission result missing", nil)
		return
	}

	util.RespondWithResult(c, http.StatusCreated, []gin.H{{
		"adapterID":  uuid.NewString(),
		"resourceID": adm.ResourceID,
		"provider":   adm.Resource.ProviderID,
	}})
}

func (ctl *IngestionController) DeleteAdapter(c *gin.Context) {
	adm, ok := middleware.AdmissionFromContext(c)
	if !ok {
		util.RespondWithError(c, http.StatusInternalServerError, "admission result missing", nil)
		return
	}

	util.RespondWithResult(c, http.StatusOK, []gin.H{{
		"resourceID": adm.ResourceID,
	}})
}
