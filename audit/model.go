// audit/model.go
package audit

import "time"

// AccessLog is one admitted, metered request, indexed for billing and
// operator queries.
type AccessLog struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Subject       string    `json:"subject"`
	Role          string    `json:"role"`
	ResourceID    string    `json:"resource_id"`
	ResourceGroup string    `json:"resource_group,omitempty"`
	Endpoint      string    `json:"endpoint"`
	Method        string    `json:"method"`
	AccessClass   string    `json:"access_class"`
	ResponseBytes int64     `json:"response_bytes"`
}
