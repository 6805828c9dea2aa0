// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop and emits one RefreshResult per cycle.
// One goroutine per bank. No overlap: a slow cycle delays the next tick.
func (s *Session) Run(ctx context.Context, out chan<- RefreshResult) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := s.RefreshOnce(ctx)
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// RefreshOnce wraps Refresh into a RefreshResult.
func (s *Session) RefreshOnce(ctx context.Context) RefreshResult {
	res := RefreshResult{
		SessionID: s.id,
		At:        s.now(),
	}

	pack, err := s.Refresh(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	res.Pack = pack
	res.Units = len(pack.Units)
	return res
}
