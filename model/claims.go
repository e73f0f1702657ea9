// model/claims.go
package model

import (
	"strings"
	"time"
)

// Role is the declared role of a credential. Endpoints declare the set of
// roles they admit.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleProvider Role = "provider"
	RoleDelegate Role = "delegate"
	RoleAdmin    Role = "admin"
)

// AccessClass is the metered category of an endpoint, used to select which
// usage limit from the credential's access grant applies.
type AccessClass string

const (
	AccessClassAPI   AccessClass = "api"
	AccessClassAsync AccessClass = "async"
	AccessClassSub   AccessClass = "sub"
)

// Claims is the decoded result of a verified bearer credential. It is
// immutable once decoded and lives for the duration of one request.
type Claims struct {
	Subject       string
	Issuer        string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	Role          Role
	ResourceScope string                // iid claim, "<namespace>:<resource id>"
	DelegatedFor  string                // did claim, owner id when Role is delegate
	DelegateRole  Role                  // drl claim
	Access        map[AccessClass]int64 // cons.access, access class -> granted limit
}

// SelfIssued reports whether the credential identifies its own owner rather
// than a delegated or derived identity. Self-issued credentials bypass the
// revocation check.
func (c *Claims) SelfIssued() bool {
	return c.Issuer == c.Subject
}

// ScopeID returns the resource id the credential is scoped to: the portion of
// the iid claim after its namespace prefix.
func (c *Claims) ScopeID() string {
	if i := strings.Index(c.ResourceScope, ":"); i >= 0 {
		return c.ResourceScope[i+1:]
	}
	return c.ResourceScope
}

// Limit returns the granted usage limit for the given access class.
func (c *Claims) Limit(class AccessClass) (int64, bool) {
	limit, ok := c.Access[class]
	return limit, ok
}
