package service

import (
	"context"
	"time"

	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/nsvirk/spxanalytics/pkg/utils/state"
	"github.com/nsvirk/spxanalytics/pkg/utils/zaplogger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var constituentsUpdatedAtKey = "SPX_CONSTITUENTS_UPDATED_AT"

// CronService is the service for the cron jobs
type CronService struct {
	cfg         *config.Config
	c           *cron.Cron
	state       *state.State
	syncService *SyncService
	now         func() time.Time
}

// NewCronService creates a new CronService
func NewCronService(cfg *config.Config, db *gorm.DB, syncService *SyncService) *CronService {
	stateManager, err := state.NewState(db)
	if err != nil {
		zaplogger.Fatal("failed to create state manager", zaplogger.Fields{"error": err})
	}

	return &CronService{
		cfg:         cfg,
		c:           cron.New(cron.WithLocation(time.UTC)),
		state:       stateManager,
		syncService: syncService,
		now:         time.Now,
	}
}

// Start starts the cron service
func (cs *CronService) Start() {
	zaplogger.Info("Initializing CronService")

	// ------------------------------------------------------------
	// Add your SCHEDULED jobs here
	// ------------------------------------------------------------
	cs.addScheduledJob("S&P 500 Constituents UPDATE Job", cs.constituentsUpdateJob, "0 22 * * 1-5") // Once at 22:00 UTC, Mon-Fri
	cs.addScheduledJob("S&P 500 Prices SYNC Job", cs.pricesSyncJob, cs.cfg.SyncCron)

	// ------------------------------------------------------------
	// Add your STARTUP jobs here
	// ------------------------------------------------------------
	cs.addStartupJob("S&P 500 Constituents UPDATE Job", cs.constituentsUpdateJob, 1*time.Second)
	cs.addStartupJob("S&P 500 Prices SYNC Job", cs.pricesSyncJob, 10*time.Second)
	// ------------------------------------------------------------

	cs.c.Start()
}

// Stop stops the scheduler and waits for running jobs
func (cs *CronService) Stop() context.Context {
	return cs.c.Stop()
}

// addStartupJob adds a startup job to the cron service
func (cs *CronService) addStartupJob(name string, job func(), delay time.Duration) {
	go func() {
		time.Sleep(delay)
		zaplogger.Info("STARTED STARTUP job", zaplogger.Fields{
			"job": name,
		})
		job()
		zaplogger.Info("COMPLETED STARTUP job", zaplogger.Fields{
			"job": name,
		})
	}()
	zaplogger.Info("QUEUED STARTUP job", zaplogger.Fields{
		"job": name,
	})
}

func (cs *CronService) addScheduledJob(name string, job func(), schedule string) {
	_, err := cs.c.AddFunc(schedule, func() {
		zaplogger.Info("STARTED SCHEDULED JOB", zaplogger.Fields{
			"job": name,
		})
		job()
		zaplogger.Info("COMPLETED SCHEDULED JOB", zaplogger.Fields{
			"job": name,
		})
	})
	if err != nil {
		zaplogger.Error("FAILED TO QUEUE SCHEDULED JOB", zaplogger.Fields{
			"job":      name,
			"schedule": schedule,
			"error":    err.Error(),
		})
		return
	}
	zaplogger.Info("QUEUED SCHEDULED job", zaplogger.Fields{
		"job":      name,
		"schedule": schedule,
	})
}

// constituentsUpdateJob scrapes the constituents at most once a day
func (cs *CronService) constituentsUpdateJob() {
	jobName := "S&P 500 Constituents UPDATE Job "

	updatedAt, ok, err := cs.state.GetTime(constituentsUpdatedAtKey)
	if err == nil && ok && !cs.isConstituentsUpdateRequired(updatedAt) {
		zaplogger.Info("Constituents update not required", zaplogger.Fields{
			constituentsUpdatedAtKey: updatedAt.Format(state.TimeLayout),
		})
		return
	}

	rowsInserted, err := cs.syncService.SyncConstituents(context.Background())
	if err != nil {
		zaplogger.Error(jobName, zaplogger.Fields{
			"error": err.Error(),
		})
		return
	}

	if err := cs.state.SetTime(constituentsUpdatedAtKey, cs.now()); err != nil {
		zaplogger.Error(jobName, zaplogger.Fields{
			"step":  "SetState",
			"error": err.Error(),
		})
	}
	zaplogger.Info(jobName, zaplogger.Fields{
		"rows_inserted": rowsInserted,
	})
}

// isConstituentsUpdateRequired is true unless the last update happened today
func (cs *CronService) isConstituentsUpdateRequired(lastUpdatedAt time.Time) bool {
	return !state.IsSameDay(lastUpdatedAt, cs.now())
}

// pricesSyncJob syncs the prices of the whole universe
func (cs *CronService) pricesSyncJob() {
	jobName := "S&P 500 Prices SYNC Job "

	result := cs.syncService.SyncUniverse(context.Background())
	fields := zaplogger.Fields{
		"tickers": result.Tickers,
		"points":  result.Points,
		"failed":  result.Failed,
	}
	if result.Failed > 0 {
		zaplogger.Warn(jobName+result.Message(), fields)
		return
	}
	zaplogger.Info(jobName+result.Message(), fields)
}
