package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"hookrelay/internal/discord"
	"hookrelay/internal/dispatch"
	logx "hookrelay/pkg/logx"

	"github.com/robfig/cron/v3"
)

// specParser accepts standard 5-field specs, optional leading seconds,
// and descriptors like @hourly and @every.
var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSpec reports whether raw is an acceptable cron spec. Used by
// the config validator so bad specs are rejected before a reload.
func ValidateSpec(raw string) error {
	_, err := specParser.Parse(strings.TrimSpace(raw))
	return err
}

// Job is one recurring notification.
type Job struct {
	Name     string
	Cron     string
	Route    string
	Content  string
	Priority int
}

type Config struct {
	Enabled  bool
	Timezone string // IANA TZ, e.g. "Asia/Jakarta"
	Jobs     []Job
}

// Notifier enqueues a message for delivery. *dispatch.Service
// satisfies this.
type Notifier interface {
	Notify(ctx context.Context, m dispatch.Message) error
}

type Service struct {
	mu sync.Mutex

	log      logx.Logger
	notifier Notifier

	cfg Config
	loc *time.Location
	c   *cron.Cron

	runCtx  context.Context
	running bool
}

func New(cfg Config, notifier Notifier, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, notifier: notifier, log: log}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

// Apply swaps the job set and timezone. A running scheduler restarts
// its cron runner so the new definitions take effect.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	if !s.running {
		return
	}
	if !cfg.Enabled {
		s.stopLocked()
		return
	}
	s.restartLocked()
}

func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.runCtx = ctx
	s.running = true
	if !s.cfg.Enabled {
		return
	}
	s.restartLocked()
}

func (s *Service) Stop(ctx context.Context) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
		s.log.Info("scheduler stopped")
	}
}

func (s *Service) restartLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}

	loc := s.loadLocationLocked()
	s.loc = loc
	c := cron.New(cron.WithParser(specParser), cron.WithLocation(loc))

	registered := 0
	for _, j := range s.cfg.Jobs {
		job := j
		_, err := c.AddFunc(job.Cron, func() { s.fire(job) })
		if err != nil {
			// Validation normally catches this before commit; a bad spec
			// from a direct Apply is skipped, not fatal.
			s.log.Warn("schedule rejected",
				logx.String("job", job.Name),
				logx.String("cron", job.Cron),
				logx.Err(err),
			)
			continue
		}
		registered++
	}

	s.c = c
	c.Start()
	s.log.Info("scheduler started",
		logx.Int("jobs", registered),
		logx.String("tz", loc.String()),
	)
}

func (s *Service) fire(j Job) {
	s.mu.Lock()
	n := s.notifier
	ctx := s.runCtx
	s.mu.Unlock()
	if n == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := n.Notify(cctx, dispatch.Message{
		Route:    j.Route,
		Priority: j.Priority,
		Note:     discord.Notification{Content: j.Content},
	})
	if err != nil {
		s.log.Warn("scheduled notification rejected",
			logx.String("job", j.Name),
			logx.Err(err),
		)
		return
	}
	s.log.Debug("scheduled notification queued", logx.String("job", j.Name))
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local",
			logx.String("tz", tz),
			logx.Err(err),
		)
		return time.Local
	}
	return loc
}
