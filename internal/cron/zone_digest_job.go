package cron

import (
	"context"
	"fmt"
)

const ZoneDigestJobName = "zone-digest"

type dailyDigest interface {
	SendDailyDigest(ctx context.Context) error
}

type ZoneDigestJob struct {
	digest dailyDigest
}

func NewZoneDigestJob(digest dailyDigest) (*ZoneDigestJob, error) {
	if digest == nil {
		return nil, fmt.Errorf("zone digest service required")
	}
	return &ZoneDigestJob{digest: digest}, nil
}

func (j *ZoneDigestJob) Name() string { return ZoneDigestJobName }

func (j *ZoneDigestJob) Run(ctx context.Context) error {
	if err := j.digest.SendDailyDigest(ctx); err != nil {
		return fmt.Errorf("send daily digest: %w", err)
	}
	return nil
}
