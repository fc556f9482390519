package performance

import (
	"time"

	"perfengine/internal/domain/directory"
)

// Service orchestrates cycle resolution, review recording and the two-tier
// recompute that keeps monthly and cycle summaries consistent with the
// underlying reviews.
type Service struct {
	store StoreAPI
	dir   directory.Directory
	now   func() time.Time
}

func NewService(store StoreAPI, dir directory.Directory) *Service {
	return &Service{store: store, dir: dir, now: time.Now}
}
