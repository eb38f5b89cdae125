package app

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"taskhub/internal/logging"
	"taskhub/internal/observability"
	"taskhub/internal/task/domain"
	"taskhub/internal/task/ports"
)

const (
	defaultPollInterval = time.Minute
	defaultStartLead    = 5 * time.Minute
	startSentCacheSize  = 4096
)

// Dispatcher periodically evaluates the tasks of every user with an attached
// client and pushes deadline and start-time notifications through the sink.
//
// Two dedupe layers keep it quiet: start reminders fire once per task and
// start instant, and deadline notifications fire once per urgency level,
// re-firing only when the level escalates.
type Dispatcher struct {
	repo     ports.TaskRepository
	settings ports.SettingsProvider
	sink     ports.NotificationSink
	logger   logging.Logger
	metrics  *observability.Metrics
	now      func() time.Time

	interval  time.Duration
	startLead time.Duration

	startSent *lru.Cache[string, struct{}]

	mu        sync.Mutex
	lastLevel map[string]domain.HealthLevel
}

// NewDispatcher builds a dispatcher with the default cadence (one pass per
// minute, five minutes of start-reminder lead).
func NewDispatcher(repo ports.TaskRepository, settings ports.SettingsProvider, sink ports.NotificationSink, logger logging.Logger, metrics *observability.Metrics) *Dispatcher {
	startSent, _ := lru.New[string, struct{}](startSentCacheSize)
	return &Dispatcher{
		repo:      repo,
		settings:  settings,
		sink:      sink,
		logger:    logging.OrNop(logger),
		metrics:   metrics,
		now:       time.Now,
		interval:  defaultPollInterval,
		startLead: defaultStartLead,
		startSent: startSent,
		lastLevel: make(map[string]domain.HealthLevel),
	}
}

// WithNow overrides the clock, for tests.
func (d *Dispatcher) WithNow(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// WithInterval overrides the poll cadence.
func (d *Dispatcher) WithInterval(interval time.Duration) *Dispatcher {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// Run polls until ctx is canceled. Call it from its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	d.logger.Info("notification dispatcher started: interval=%s", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick runs one evaluation pass. Exported so tests and the run loop share
// the same path.
func (d *Dispatcher) Tick(ctx context.Context) {
	seen := make(map[string]struct{})
	for _, userID := range d.sink.ActiveUsers() {
		settings := d.settings.OwnerSettings(ctx, userID)
		if !settings.NotificationsEnabled {
			continue
		}
		tasks, err := d.repo.List(ctx, userID, ports.ListFilter{})
		if err != nil {
			d.logger.Warn("dispatcher: listing tasks for %s: %v", userID, err)
			continue
		}
		now := d.now()
		for _, task := range tasks {
			seen[task.ID] = struct{}{}
			d.evaluate(userID, task, now, settings.Location)
		}
	}
	d.pruneLevels(seen)
}

// pruneLevels drops dedupe state for tasks that no pass sees anymore, so the
// map does not grow with every task ever notified about. Deleted tasks and
// tasks of disconnected users fall out here.
func (d *Dispatcher) pruneLevels(seen map[string]struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.lastLevel {
		if _, ok := seen[id]; !ok {
			delete(d.lastLevel, id)
		}
	}
}

func (d *Dispatcher) evaluate(userID string, task domain.Task, now time.Time, loc *time.Location) {
	if task.Status == domain.StatusCompleted || task.NotificationsMuted || task.SnoozedAt(now) {
		d.forgetLevel(task.ID)
		return
	}

	if task.NotifyOnStart && task.StartAt != nil {
		until := task.StartAt.Sub(now)
		if until > 0 && until <= d.startLead {
			key := task.ID + "@" + task.StartAt.UTC().Format(time.RFC3339)
			if _, seen := d.startSent.Get(key); !seen {
				d.startSent.Add(key, struct{}{})
				d.publish(userID, ports.Notification{
					TaskID:  task.ID,
					Kind:    "start_soon",
					Title:   task.Title,
					Message: "starting soon",
					At:      now,
				})
			}
		}
	}

	health := domain.Classify(task, now, loc)
	if !health.ShouldNotify {
		d.forgetLevel(task.ID)
		return
	}
	if !d.levelChanged(task.ID, health.Level) {
		return
	}
	d.publish(userID, ports.Notification{
		TaskID:  task.ID,
		Kind:    "deadline",
		Level:   string(health.Level),
		Title:   task.Title,
		Message: health.Message,
		At:      now,
		Health: &ports.HealthInfo{
			Level:            string(health.Level),
			Score:            health.Score,
			RemainingSeconds: int64(health.TimeRemaining.Seconds()),
		},
	})
}

func (d *Dispatcher) publish(userID string, n ports.Notification) {
	d.sink.Publish(userID, n)
	if d.metrics != nil {
		d.metrics.RecordNotification(n.Kind)
	}
}

func (d *Dispatcher) levelChanged(taskID string, level domain.HealthLevel) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastLevel[taskID] == level {
		return false
	}
	d.lastLevel[taskID] = level
	return true
}

func (d *Dispatcher) forgetLevel(taskID string) {
	d.mu.Lock()
	delete(d.lastLevel, taskID)
	d.mu.Unlock()
}
