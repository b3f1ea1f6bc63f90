package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"collegeevents/internal/domain"

	"github.com/robfig/cron/v3"
)

// ImageJanitor removes uploaded images that no event references any more.
// Files younger than grace are kept so an upload whose event is still being written survives.
type ImageJanitor struct {
	eventRepo domain.EventRepository
	images    domain.ImageStore
	grace     time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
	cron      *cron.Cron
}

// NewImageJanitor returns a janitor; call Start to schedule it.
func NewImageJanitor(eventRepo domain.EventRepository, images domain.ImageStore, grace, timeout time.Duration, logger *slog.Logger) *ImageJanitor {
	return &ImageJanitor{
		eventRepo: eventRepo,
		images:    images,
		grace:     grace,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs Sweep on the given standard cron schedule until Stop is called.
func (j *ImageJanitor) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		removed, err := j.Sweep(ctx)
		if err != nil {
			j.logger.Error("image sweep failed", "err", err)
			return
		}
		j.logger.Info("image sweep finished", "removed", removed)
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	j.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *ImageJanitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

// Sweep deletes unreferenced images older than the grace period and returns how many went.
func (j *ImageJanitor) Sweep(ctx context.Context) (int, error) {
	stored, err := j.images.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list images: %w", err)
	}
	events, err := j.eventRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	referenced := make(map[string]struct{}, len(events))
	for _, e := range events {
		if key, ok := j.images.Key(e.Image); ok {
			referenced[key] = struct{}{}
		}
	}

	cutoff := j.now().Add(-j.grace)
	removed := 0
	for _, img := range stored {
		key, ok := j.images.Key(img.Ref)
		if !ok {
			continue
		}
		if _, ok := referenced[key]; ok {
			continue
		}
		if img.ModTime.After(cutoff) {
			continue
		}
		if err := j.images.Remove(ctx, img.Ref); err != nil {
			j.logger.Warn("remove orphaned image failed", "image", img.Ref, "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}
