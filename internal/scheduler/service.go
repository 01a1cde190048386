package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/paws-and-plates/lead-radar/internal/config"
	"github.com/paws-and-plates/lead-radar/internal/export"
	"github.com/paws-and-plates/lead-radar/internal/radar"
)

// Service drives periodic lead queue exports independently of the
// ingestion loop, so the snapshot stays fresh even between cycles
// (reviewers marking leads shrink the queue without new ingestion).
type Service struct {
	config   *config.Config
	radar    *radar.Service
	exporter *export.Exporter
	cron     *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, radarService *radar.Service, exporter *export.Exporter) *Service {
	return &Service{
		config:   cfg,
		radar:    radarService,
		exporter: exporter,
		cron:     cron.New(),
	}
}

// Start begins the scheduled exports
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.ExportSchedule, func() {
		logrus.Info("Starting scheduled lead queue export")
		if _, err := s.exporter.Export(context.Background(), s.radar.Stats()); err != nil {
			logrus.Errorf("Scheduled export failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with export schedule %q", s.config.ExportSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
