package scheduler

import "context"

// runJob executes one job run with concurrency limiting and a timeout.
func (s *Scheduler) runJob(name string) {
	s.semaphore <- struct{}{}
	defer func() { <-s.semaphore }()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	switch name {
	case JobQuotaRefresh:
		s.refreshQuota(ctx)
	case JobSendLogPurge:
		s.purgeSendLog(ctx)
	default:
		s.logger.Warn("unknown job", "job", name)
	}
}

// refreshQuota failures are already published by the quota service; the
// cached or default rate stays in effect.
func (s *Scheduler) refreshQuota(ctx context.Context) {
	rate, err := s.cfg.Quota.Refresh(ctx)
	if err != nil {
		s.logger.Warn("scheduled quota refresh failed", "error", err)
		return
	}
	s.logger.Debug("scheduled quota refresh", "rate", rate)
}

func (s *Scheduler) purgeSendLog(ctx context.Context) {
	cutoff := s.clock.Now().Add(-s.cfg.Retention).UTC()
	n, err := s.cfg.Sends.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("send log purge failed", "error", err)
		return
	}
	s.logger.Debug("send log purge finished", "removed", n, "cutoff", cutoff)
}
