package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler fires once a day at a fixed hour:minute in a fixed zone and
// hands each firing to the consumer of Ticks. Missed firings (downtime, a
// full buffer) are not caught up.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	ticks    chan time.Time
	now      func() time.Time
	log      zerolog.Logger
}

// New validates hour and minute and builds a daily schedule.
func New(hour, minute int, loc *time.Location, log zerolog.Logger) (*Scheduler, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("hour out of range: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, fmt.Errorf("minute out of range: %d", minute)
	}
	if loc == nil {
		loc = time.UTC
	}
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     spec,
		schedule: schedule,
		loc:      loc,
		ticks:    make(chan time.Time, 1),
		now:      time.Now,
		log:      log,
	}, nil
}

// Ticks delivers the moment of each firing.
func (s *Scheduler) Ticks() <-chan time.Time { return s.ticks }

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.fire); err != nil {
		return err
	}
	s.cron.Start()
	next := s.Next(s.now())
	s.log.Info().
		Str("at", next.Format("15:04")).
		Str("zone", s.loc.String()).
		Time("next", next).
		Msg("🕗 daily delivery scheduled")
	return nil
}

// fire runs on the cron goroutine and must never block it.
func (s *Scheduler) fire() {
	at := s.now().In(s.loc)
	select {
	case s.ticks <- at:
		s.log.Debug().Time("at", at).Msg("timer fired")
	default:
		s.log.Warn().Time("at", at).Msg("previous firing still pending, dropping this one")
	}
}

// Next returns the first firing strictly after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
