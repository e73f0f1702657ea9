// quota/keys.go
package quota

import (
	"fmt"
	"time"
)

// Counter keys are deterministic over (subject, resource, metric) and scoped
// to the UTC calendar-month accounting window, so every server instance
// derives the same key for the same consumption.

const windowLayout = "2006-01"

func CallCountKey(subject, resourceID string, now time.Time) string {
	return fmt.Sprintf("quota:%s:%s:apiCount:%s", subject, resourceID, now.UTC().Format(windowLayout))
}

func ByteCountKey(subject, resourceID string, now time.Time) string {
	return fmt.Sprintf("quota:%s:%s:byteCount:%s", subject, resourceID, now.UTC().Format(windowLayout))
}
