package cron

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailsort/dto"
	cron_config "github.com/customeros/mailsort/internal/cron/config"
	"github.com/customeros/mailsort/internal/enum"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/models"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Start(ctx context.Context, snapshot models.Snapshot, trigger enum.RunTrigger) (string, error) {
	args := m.Called(ctx, snapshot, trigger)
	return args.String(0), args.Error(1)
}

func (m *mockRunner) Run(ctx context.Context, snapshot models.Snapshot, trigger enum.RunTrigger) (models.SessionReport, error) {
	args := m.Called(ctx, snapshot, trigger)
	return args.Get(0).(models.SessionReport), args.Error(1)
}

func (m *mockRunner) Cancel() error {
	return m.Called().Error(0)
}

func (m *mockRunner) Status() dto.RunStatus {
	return m.Called().Get(0).(dto.RunStatus)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func staticSnapshot() (models.Snapshot, error) {
	return models.NewSnapshot(models.Options{IncludeInbox: true}, "me@example.com", nil, nil), nil
}

func TestNewCronManager(t *testing.T) {
	cfg := &cron_config.Config{CronScheduleHeartbeat: "0 * * * * *"}
	log := getLogger()
	runner := &mockRunner{}

	cm := NewCronManager(cfg, log, runner, staticSnapshot)

	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegisterJobs(t *testing.T) {
	cfg := &cron_config.Config{
		CronScheduleHeartbeat: "0 * * * * *",
		CronScheduleClassify:  "0 */15 * * * *",
	}
	cm := NewCronManager(cfg, getLogger(), &mockRunner{}, staticSnapshot)

	err := cm.registerJobs(cronv3.New(cronv3.WithSeconds()))

	require.NoError(t, err)
	assert.Len(t, cm.jobIDs, 2)
	assert.Contains(t, cm.jobIDs, jobClassify)
}

func TestCronManager_RegisterJobs_InvalidSchedule(t *testing.T) {
	cfg := &cron_config.Config{CronScheduleClassify: "every now and then"}
	cm := NewCronManager(cfg, getLogger(), &mockRunner{}, staticSnapshot)

	err := cm.registerJobs(cronv3.New(cronv3.WithSeconds()))

	assert.ErrorContains(t, err, "classification cron job")
}

func TestCronManager_ClassifySkipsWhenBusy(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, mock.Anything, enum.RunTriggerSchedule).
		Return(models.SessionReport{}, mailsort_errors.ErrRunInProgress).Once()
	cm := NewCronManager(&cron_config.Config{}, getLogger(), runner, staticSnapshot)

	assert.NotPanics(t, cm.runScheduledClassification)
	runner.AssertExpectations(t)
}

func TestCronManager_ClassifyRunsWithFreshSnapshot(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, mock.MatchedBy(func(snapshot models.Snapshot) bool {
		return snapshot.AccountAddress == "me@example.com"
	}), enum.RunTriggerSchedule).
		Return(models.SessionReport{RunID: "run_1", Status: enum.RunStatusCompleted}, nil).Once()
	cm := NewCronManager(&cron_config.Config{}, getLogger(), runner, staticSnapshot)

	cm.runScheduledClassification()

	runner.AssertExpectations(t)
}

func TestCronManager_ClassifySkipsOnBadRules(t *testing.T) {
	runner := &mockRunner{}
	failing := func() (models.Snapshot, error) {
		return models.Snapshot{}, errors.New("invalid rule configuration")
	}
	cm := NewCronManager(&cron_config.Config{}, getLogger(), runner, failing)

	cm.runScheduledClassification()

	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestCronManager_Stop(t *testing.T) {
	cm := NewCronManager(&cron_config.Config{}, getLogger(), &mockRunner{}, staticSnapshot)
	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	cm.Stop()
	cm.Stop()

	select {
	case <-cm.stopCh:
		// Channel is closed as expected
	default:
		t.Error("Stop channel was not closed")
	}
}
