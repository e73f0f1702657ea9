// model/revocation.go
package model

import "time"

// RevocationRecord marks every credential of a subject issued before
// RevokedAt as invalid. At most one record exists per subject; a newer
// revocation overwrites the previous one.
type RevocationRecord struct {
	Subject   string
	RevokedAt time.Time
}
