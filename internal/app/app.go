package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/api"
	"github.com/healthmonitree/healthtrack/internal/appointments"
	"github.com/healthmonitree/healthtrack/internal/config"
	"github.com/healthmonitree/healthtrack/internal/hospitals"
	"github.com/healthmonitree/healthtrack/internal/medications"
	"github.com/healthmonitree/healthtrack/internal/metrics"
	"github.com/healthmonitree/healthtrack/internal/notify"
	"github.com/healthmonitree/healthtrack/internal/profile"
	"github.com/healthmonitree/healthtrack/internal/reconcile"
	"github.com/healthmonitree/healthtrack/internal/store"
)

// App wires the whole service together
type App struct {
	Config *config.Config
	Store  *store.Store
	Logger *zap.Logger

	Medications  *medications.Store
	Scheduler    *medications.Scheduler
	Appointments *appointments.Store
	Monitor      *appointments.Monitor
	Profiles     *profile.Store
	Hospitals    *hospitals.Service
	Reconciler   *reconcile.Reconciler
	Hub          *notify.Hub
	Dispatcher   *notify.Dispatcher
	Metrics      *metrics.Metrics
	Server       *api.Server

	cancel context.CancelFunc
}

// New builds the application from configuration
func New(cfg *config.Config, st *store.Store, logger *zap.Logger) (*App, error) {
	m := metrics.New()
	hub := notify.NewHub()

	dispatcher := notify.NewDispatcher(logger, m, notify.NewInAppSink(hub))
	if cfg.Notify.Telegram.Enabled {
		sink, err := notify.NewTelegramSink(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn("telegram sink disabled", zap.Error(err))
		} else {
			dispatcher.Register(sink)
		}
	}
	if cfg.Notify.Discord.Enabled {
		sink, err := notify.NewDiscordSink(cfg.Notify.Discord.Token, cfg.Notify.Discord.ChannelID, logger)
		if err != nil {
			logger.Warn("discord sink disabled", zap.Error(err))
		} else {
			dispatcher.Register(sink)
		}
	}

	medStore, err := medications.NewStore(st.DB(), logger)
	if err != nil {
		return nil, err
	}
	apptStore, err := appointments.NewStore(st.DB(), st, logger)
	if err != nil {
		return nil, err
	}
	profileStore, err := profile.NewStore(st.DB(), logger)
	if err != nil {
		return nil, err
	}

	interval := time.Duration(cfg.Scheduler.CheckIntervalSeconds) * time.Second
	scheduler := medications.NewScheduler(medStore, dispatcher, logger, m, interval)
	monitor := appointments.NewMonitor(apptStore, dispatcher, logger, m, interval)
	reconciler := reconcile.New(medStore, logger, m)

	placesClient := hospitals.NewClient(&cfg.Places, logger, m)
	hospitalSvc := hospitals.NewService(placesClient, st, &cfg.Places, logger, m)

	a := &App{
		Config:       cfg,
		Store:        st,
		Logger:       logger,
		Medications:  medStore,
		Scheduler:    scheduler,
		Appointments: apptStore,
		Monitor:      monitor,
		Profiles:     profileStore,
		Hospitals:    hospitalSvc,
		Reconciler:   reconciler,
		Hub:          hub,
		Dispatcher:   dispatcher,
		Metrics:      m,
	}

	a.Server = api.New(api.Deps{
		Config:       cfg,
		Store:        st,
		Medications:  medStore,
		Scheduler:    scheduler,
		Appointments: apptStore,
		Profiles:     profileStore,
		Hospitals:    hospitalSvc,
		Hub:          hub,
		Metrics:      m,
		Logger:       logger,
	})
	return a, nil
}

// Start reconciles schedules left stale by downtime, then launches the
// background loops and the HTTP server
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Reconciler.Run(time.Now())
	if err := a.Reconciler.Start(a.Config.Scheduler.ReconcileSpec); err != nil {
		cancel()
		return err
	}

	a.Scheduler.Start(ctx)
	a.Monitor.Start(ctx)

	a.Logger.Info("healthtrack started",
		zap.String("address", a.Config.Server.Address),
		zap.Int("port", a.Config.Server.Port))
	return a.Server.Start()
}

// Shutdown stops the loops and closes storage
func (a *App) Shutdown() {
	a.Logger.Info("shutting down")
	if a.cancel != nil {
		a.cancel()
	}
	a.Scheduler.Stop()
	a.Monitor.Stop()
	a.Reconciler.Stop()

	if err := a.Server.Shutdown(); err != nil {
		a.Logger.Warn("server shutdown failed", zap.Error(err))
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("store close failed", zap.Error(err))
	}
}
