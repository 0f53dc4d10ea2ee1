// Package maintenance runs periodic housekeeping against the datastore.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSchedule runs maintenance once a day
const DefaultSchedule = "@daily"

// Store is the datastore housekeeping surface
type Store interface {
	Optimize(ctx context.Context) error
	Vacuum(ctx context.Context) error
}

// Config controls when maintenance runs and what it does.
// An empty Schedule disables scheduled runs.
type Config struct {
	Schedule string
	Vacuum   bool
}

// Manager schedules maintenance passes with cron
type Manager struct {
	store       Store
	config      Config
	cron        *cron.Cron
	cronEntryID cron.EntryID
	mu          sync.RWMutex
	running     bool
	passMu      sync.Mutex
}

// NewManager creates a new maintenance manager
func NewManager(store Store, config Config) *Manager {
	return &Manager{
		store:  store,
		config: config,
		cron:   cron.New(),
	}
}

// Start starts the scheduler. An invalid schedule is returned as an error.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	if m.config.Schedule != "" {
		id, err := m.cron.AddFunc(m.config.Schedule, m.scheduledRun)
		if err != nil {
			return fmt.Errorf("invalid maintenance schedule %q: %w", m.config.Schedule, err)
		}
		m.cronEntryID = id
	}

	m.cron.Start()
	m.running = true

	log.Info().
		Str("schedule", m.config.Schedule).
		Bool("vacuum", m.config.Vacuum).
		Msg("Maintenance manager started")

	return nil
}

// Stop stops the scheduler and waits for a running pass to finish
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	ctx := m.cron.Stop()
	<-ctx.Done()

	m.running = false
	log.Info().Msg("Maintenance manager stopped")
}

// NextRun returns the next scheduled run, or the zero time when unscheduled
func (m *Manager) NextRun() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cronEntryID == 0 {
		return time.Time{}
	}
	return m.cron.Entry(m.cronEntryID).Next
}

// Run performs one maintenance pass. Passes never overlap.
func (m *Manager) Run(ctx context.Context) error {
	m.passMu.Lock()
	defer m.passMu.Unlock()

	start := time.Now()
	if err := m.store.Optimize(ctx); err != nil {
		return err
	}
	if m.config.Vacuum {
		if err := m.store.Vacuum(ctx); err != nil {
			return err
		}
	}

	log.Info().
		Bool("vacuum", m.config.Vacuum).
		Dur("duration", time.Since(start)).
		Msg("Database maintenance complete")
	return nil
}

// scheduledRun is called by cron
func (m *Manager) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := m.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduled database maintenance failed")
	}
}
