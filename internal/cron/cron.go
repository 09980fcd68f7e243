package cron

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/customeros/mailsort/interfaces"
	cron_config "github.com/customeros/mailsort/internal/cron/config"
	"github.com/customeros/mailsort/internal/enum"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/tracing"
)

const (
	// GroupClassifier is the group for classification related jobs
	GroupClassifier = "classifier"

	jobHeartbeat = "heartbeat"
	jobClassify  = "classify"
)

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupClassifier: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg      *cron_config.Config
	log      logger.Logger
	cron     *cronv3.Cron
	stopCh   chan struct{}
	stopOnce sync.Once
	jobIDs   map[string]cronv3.EntryID
	runner   interfaces.SessionRunner
	snapshot interfaces.SnapshotProvider
}

func NewCronManager(cfg *cron_config.Config, log logger.Logger, runner interfaces.SessionRunner, snapshot interfaces.SnapshotProvider) *CronManager {
	return &CronManager{
		cfg:      cfg,
		log:      log,
		stopCh:   make(chan struct{}),
		jobIDs:   make(map[string]cronv3.EntryID),
		runner:   runner,
		snapshot: snapshot,
	}
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	cm.stopOnce.Do(func() {
		close(cm.stopCh)
	})
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) error {
	if cm.cfg.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cm.cfg.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			return errors.Wrap(err, "could not add heartbeat cron job")
		}
		cm.jobIDs[jobHeartbeat] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cm.cfg.CronScheduleHeartbeat)
	}

	if cm.cfg.CronScheduleClassify != "" {
		id, err := c.AddFunc(cm.cfg.CronScheduleClassify, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupClassifier].Lock()
			defer jobLocks.locks[GroupClassifier].Unlock()
			cm.runScheduledClassification()
		})
		if err != nil {
			return errors.Wrap(err, "could not add classification cron job")
		}
		cm.jobIDs[jobClassify] = id
		cm.log.Infof("Registered classification job with schedule: %s", cm.cfg.CronScheduleClassify)
	}
	return nil
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() error {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	if err := cm.registerJobs(c); err != nil {
		return err
	}
	c.Start()
	cm.cron = c
	return nil
}

func (cm *CronManager) runScheduledClassification() {
	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.runScheduledClassification")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	snapshot, err := cm.snapshot()
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Scheduled classification skipped, rules could not be loaded: %v", err)
		return
	}

	report, err := cm.runner.Run(ctx, snapshot, enum.RunTriggerSchedule)
	if errors.Is(err, mailsort_errors.ErrRunInProgress) {
		cm.log.Info("Scheduled classification skipped, a run is already in progress")
		return
	}
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Scheduled classification %s failed: %v", report.RunID, err)
		return
	}

	cm.log.Infof("Scheduled classification %s %s with %d actions", report.RunID, report.Status, report.Stats.TotalActions())
}
