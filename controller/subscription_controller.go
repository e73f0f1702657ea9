// controller/subscription_controller.go
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

// SubscriptionController registers streaming subscriptions. Queue and binding
// lifecycle live with the broker layer; this controller only gates setup
// calls (access class "sub", which quota never meters) and issues handles.
type SubscriptionController struct {
	pipeline *pipeline.Pipeline
}

func NewSubscriptionController(p *pipeline.Pipeline) *SubscriptionController {
	return &SubscriptionController{pipeline: p}
}

func (ctl *SubscriptionController) RegisterRoutes(rg *gin.RouterGroup) {
	subscribe := pipeline.Endpoint{
		AllowedRoles: []model.Role{model.RoleConsumer, model.RoleAdmin},
		AccessClass:  model.AccessClassSub,
	}
	rg.POST("/subscription",
		middleware.Admission(ctl.pipeline, subscribe, nil),
		ctl.CreateSubscription)
}

func (ctl *SubscriptionController) CreateSubscription(c *gin.Context) {
	adm, ok := middleware.AdmissionFromContext(c)
	if !ok {
		util.RespondWithError(c, http.StatusInternalServerError, "admission result missing", nil)
		return
	}

	subscriptionID := adm.Claims.Subject + "/" + uuid.NewString()
	util.RespondWithResult(c, http.StatusCreated, []gin.H{{
		"subscriptionID": subscriptionID,
		"resourceID":     adm.ResourceID,
	}})
}
