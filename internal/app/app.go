package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"hookrelay/internal/config"
	"hookrelay/internal/discord/webhook"
	"hookrelay/internal/dispatch"
	"hookrelay/internal/eventbus"
	rtsup "hookrelay/internal/runtime/supervisor"
	"hookrelay/internal/scheduler"
	"hookrelay/internal/storage"
	logx "hookrelay/pkg/logx"
)

// App wires config, logging, storage, the webhook clients, and the
// delivery services into one process.
type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	// cmu guards clients and sink: the reload goroutine swaps them
	// while Stop tears them down, and Stop may proceed before a
	// timed-out reload goroutine has exited.
	cmu     sync.Mutex
	clients map[string]*webhook.Client
	sink    *webhook.Client // logging sink (separate from routes)

	disp  *dispatch.Service
	sched *scheduler.Service
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	// Bootstrap logger for config load; Start swaps in the real one.
	cfgm.SetLogger(logx.NewConsole("INFO").With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	// The log sink client must not log through the service it feeds, so
	// it gets a no-op logger. Built before logx so logx.New can start
	// with its sender in place.
	var sink *webhook.Client
	if cfg.Logging.Webhook.Enabled {
		wc, ok := cfg.Webhooks[cfg.Logging.Webhook.Route]
		if !ok {
			return nil, fmt.Errorf("logging.webhook.route: unknown webhook route %q", cfg.Logging.Webhook.Route)
		}
		sink, err = buildClient(cfg.Logging.Webhook.Route, wc, logx.Nop())
		if err != nil {
			return nil, err
		}
	}

	logSvc, log := logx.New(mapLogxConfig(cfg), senderOrNil(sink))
	log = log.With(logx.String("comp", "app"))

	clients, err := buildClients(cfg, logSvc.Logger().With(logx.String("comp", "webhook")))
	if err != nil {
		logSvc.Close()
		return nil, err
	}

	bus := eventbus.New()

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		closeClients(clients)
		logSvc.Close()
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			closeClients(clients)
			logSvc.Close()
			return nil, err
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	dcfg, err := mapDispatchConfig(cfg)
	if err != nil {
		closeClients(clients)
		logSvc.Close()
		return nil, err
	}
	disp := dispatch.New(dcfg, routesFor(clients), log.With(logx.String("comp", "dispatch")), bus, store)

	scfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		closeClients(clients)
		logSvc.Close()
		return nil, err
	}
	sched := scheduler.New(scfg, disp, log.With(logx.String("comp", "scheduler")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		clients: clients,
		sink:    sink,
		disp:    disp,
		sched:   sched,
	}, nil
}

func senderOrNil(c *webhook.Client) logx.Sender {
	if c == nil {
		return nil
	}
	return c
}

// Dispatch exposes the delivery pipeline for embedding callers.
func (a *App) Dispatch() *dispatch.Service { return a.disp }

// Done is closed when the app supervisor context is canceled (fatal
// error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		_ = c
		if _, err := mapDispatchConfig(cfg); err != nil {
			return err
		}
		if _, err := mapSchedulerConfig(cfg); err != nil {
			return err
		}
		if _, _, err := mapStorageConfig(cfg); err != nil {
			return err
		}
		for name, wc := range cfg.Webhooks {
			if _, err := config.ParseDurationField("webhooks."+name+".timeout", wc.Timeout); err != nil {
				return err
			}
		}
		return nil
	})

	if a.disp.Enabled() {
		a.disp.Start(a.sup.Context())
	}
	if a.sched.Enabled() {
		a.sched.Start(a.sup.Context())
	}

	// Debug-level event mirror; components also subscribe themselves.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				// The bus can be chatty; skip entirely unless debug is on.
				if !a.log.Enabled(logx.LevelDebug) {
					continue
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	// hot reload fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				sections, attrs := config.SummarizeChange(lastApplied, newCfg)
				if len(sections) == 0 {
					a.log.Debug("config reload received, but no effective changes detected")
					lastApplied = newCfg
					continue
				}
				a.applyReload(c, newCfg, sections)
				lastApplied = newCfg

				fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
				a.log.Info("config reloaded", fields...)
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

func (a *App) applyReload(ctx context.Context, newCfg *config.Config, sections []string) {
	changed := map[string]bool{}
	for _, s := range sections {
		changed[s] = true
	}

	if changed["storage"] {
		a.log.Warn("storage config changed; restart required for changes to take effect")
	}

	// Route table first so logging/dispatch pick up fresh clients.
	if changed["webhooks"] {
		clients, err := buildClients(newCfg, a.logs.Logger().With(logx.String("comp", "webhook")))
		if err != nil {
			a.log.Warn("invalid webhooks config; keeping previous clients", logx.Err(err))
		} else {
			old := a.swapClients(clients)
			a.disp.SetRoutes(routesFor(clients))
			closeClients(old)
		}
	}

	// Logging sink may point at a different route now.
	if changed["logging"] || changed["webhooks"] {
		var sink *webhook.Client
		if newCfg.Logging.Webhook.Enabled {
			if wc, ok := newCfg.Webhooks[newCfg.Logging.Webhook.Route]; ok {
				c, err := buildClient(newCfg.Logging.Webhook.Route, wc, logx.Nop())
				if err != nil {
					a.log.Warn("invalid logging webhook config; sink disabled", logx.Err(err))
				} else {
					sink = c
				}
			} else {
				a.log.Warn("logging.webhook.route does not resolve; sink disabled",
					logx.String("route", newCfg.Logging.Webhook.Route))
			}
		}
		oldSink := a.swapSink(sink)
		a.logs.SetSender(senderOrNil(sink))
		if oldSink != nil {
			_ = oldSink.Close()
		}
	}

	if changed["logging"] {
		a.logs.Apply(mapLogxConfig(newCfg))
	}

	if changed["dispatch"] {
		prevEnabled := a.disp.Enabled()
		dcfg, err := mapDispatchConfig(newCfg)
		if err != nil {
			a.log.Warn("invalid dispatch config; keeping previous", logx.Err(err))
		} else {
			a.disp.Apply(dcfg)
			if prevEnabled && !dcfg.Enabled {
				a.log.Info("dispatch disabled via config")
				stopCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				a.disp.Stop(stopCtx)
				cancel()
			} else if !prevEnabled && dcfg.Enabled {
				a.log.Info("dispatch enabled via config")
				a.disp.Start(ctx)
			}
		}
	}

	if changed["scheduler"] {
		scfg, err := mapSchedulerConfig(newCfg)
		if err != nil {
			a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
		} else {
			a.sched.Apply(scfg)
		}
	}
}

// swapClients installs a new route client set and returns the previous
// one for teardown by the caller.
func (a *App) swapClients(clients map[string]*webhook.Client) map[string]*webhook.Client {
	a.cmu.Lock()
	old := a.clients
	a.clients = clients
	a.cmu.Unlock()
	return old
}

func (a *App) swapSink(sink *webhook.Client) *webhook.Client {
	a.cmu.Lock()
	old := a.sink
	a.sink = sink
	a.cmu.Unlock()
	return old
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")

	// Cancel the run context so background loops start unwinding
	// immediately.
	a.sup.Cancel()

	// Run a shutdown step with an upper bound so one component can't
	// stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			if dl, ok := ctx.Deadline(); ok {
				rem := time.Until(dl)
				if rem <= 0 {
					max = 0
				} else if rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	if c := a.disp.Supervisor().Counters(); c.Active > 0 {
		a.log.Debug("draining dispatch pipeline", logx.Int64("workers", c.Active))
	}
	step("dispatch", 3*time.Second, func(c context.Context) error { a.disp.Stop(c); return nil })
	step("storage", 1*time.Second, func(c context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	if c := a.sup.Counters(); c.Active > 0 {
		a.log.Warn("goroutines still active after stop", logx.Int64("active", c.Active), logx.Int64("started", int64(c.Started)))
	}

	// Take ownership under cmu: a timed-out reload goroutine may still
	// be swapping clients.
	a.cmu.Lock()
	clients := a.clients
	sink := a.sink
	a.clients = nil
	a.sink = nil
	a.cmu.Unlock()

	closeClients(clients)
	if sink != nil {
		_ = sink.Close()
	}

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}
