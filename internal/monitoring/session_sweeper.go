package monitoring

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/taskify-app/taskify-be/internal/services"
)

// SessionSweeper periodically deletes expired session rows. It is purely
// hygienic: session resolution checks expiry itself and never depends on the
// sweep having run.
type SessionSweeper struct {
	sessions services.SessionServiceProvider
	cron     *cron.Cron
}

// NewSessionSweeper creates a sweeper on the given cron schedule.
func NewSessionSweeper(sessions services.SessionServiceProvider, schedule string) (*SessionSweeper, error) {
	sweeper := &SessionSweeper{
		sessions: sessions,
		cron:     cron.New(),
	}
	if _, err := sweeper.cron.AddFunc(schedule, sweeper.sweep); err != nil {
		return nil, err
	}
	return sweeper, nil
}

// Run starts the sweep schedule.
func (s *SessionSweeper) Run() {
	log.Info().Msg("Starting background session sweeper...")
	s.cron.Start()
}

// Stop halts the sweeper, waiting for an in-flight sweep to finish.
func (s *SessionSweeper) Stop() {
	log.Info().Msg("Stopping background session sweeper.")
	<-s.cron.Stop().Done()
}

func (s *SessionSweeper) sweep() {
	deleted, err := s.sessions.DeleteExpired()
	if err != nil {
		log.Error().Err(err).Msg("Session sweep failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("Swept expired sessions")
	}
}
