package ids

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// Image ids are v4 UUIDs; they double as object-store keys and public
// handles, so the serving path validates syntax before touching the
// database.
var imageIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func NewImageID() string {
	return uuid.NewString()
}

func IsImageID(id string) bool {
	return imageIDPattern.MatchString(id)
}

// NewTaskID returns a sortable id for queued background tasks.
func NewTaskID() string {
	return ksuid.New().String()
}
