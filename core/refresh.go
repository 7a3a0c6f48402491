package core

import (
	"context"

	"github.com/robfig/cron/v3"
)

// StartKeyRefresh schedules a background refetch of the issuer key set on the
// given cron expression (e.g. "@every 50m" to stay ahead of a 1h TTL). The
// refresh is best-effort: a failed fetch leaves the cached set in place and
// the rotation fallback in Authenticate still covers mid-window rotations.
//
// Returns the running scheduler; callers own stopping it on shutdown.
func (s *Service) StartKeyRefresh(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		// Refresh swaps the entry only on a successful fetch; a failure must
		// not evict the working key set mid-TTL.
		if err := s.keys.Refresh(context.Background(), s.issuerDomain); err != nil {
			s.log.WithError(err).Warn("scheduled key set refresh failed")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
