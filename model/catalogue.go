// model/catalogue.go
package model

// AccessPolicy is the per-resource visibility flag from the catalogue.
type AccessPolicy string

const (
	AccessPolicyOpen   AccessPolicy = "OPEN"
	AccessPolicySecure AccessPolicy = "SECURE"
)

// CatalogueEntry is the resource metadata record served by the catalogue
// service and held in the local catalogue cache.
type CatalogueEntry struct {
	ID                     string       `json:"id"`
	AccessPolicy           AccessPolicy `json:"accessPolicy"`
	ProviderID             string       `json:"provider"`
	ResourceGroupID        string       `json:"resourceGroup"`
	ItemType               string       `json:"itemType"`
	SupportsTemporalFilter bool         `json:"supportsTemporalFilter"`
}

// Open reports whether the resource is publicly readable.
func (e CatalogueEntry) Open() bool {
	return e.AccessPolicy == AccessPolicyOpen
}
