// controller/controllers.go
package controller

// Controllers bundles every route-registering controller for the router.
type Controllers struct {
	Entity       *EntityController
	Subscription *SubscriptionController
	Ingestion    *IngestionController
}
