package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/carson-networks/budget-ledger/api"
	"github.com/carson-networks/budget-ledger/internal/config"
	"github.com/carson-networks/budget-ledger/internal/events"
	"github.com/carson-networks/budget-ledger/internal/events/amqp"
	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/logging"
	"github.com/carson-networks/budget-ledger/internal/operator"
	"github.com/carson-networks/budget-ledger/internal/service"
	"github.com/carson-networks/budget-ledger/internal/storage"
	"github.com/carson-networks/budget-ledger/internal/storage/memory"
	"github.com/carson-networks/budget-ledger/internal/storage/migrations"
	"github.com/carson-networks/budget-ledger/internal/storage/sqlconfig"
)

// app is everything a command needs, built from the environment.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	store     storage.Store
	publisher events.Publisher
	delegator *operator.OperatorDelegator
	svc       *service.Service
}

func setup(ctx context.Context, runMigrations bool) (*app, error) {
	cfg, err := config.ProcessEnvironmentVariables()
	if err != nil {
		return nil, fmt.Errorf("config.ProcessEnvironmentVariables: %w", err)
	}
	log := logging.SetupLogging(cfg.Log.Level)
	log.WithField("backend", cfg.Storage.Backend).Info("budget-ledger starting")

	a := &app{cfg: cfg, log: log}
	if a.store, err = openStore(ctx, cfg, log, runMigrations); err != nil {
		return nil, err
	}
	if a.publisher, err = openPublisher(cfg, log); err != nil {
		a.store.Close()
		return nil, err
	}

	a.delegator = operator.NewOperatorDelegator(a.store, a.publisher, log, cfg.Operator.QueueSize, cfg.Operator.IdleTimeout)
	a.svc = service.NewService(a.store, a.delegator, ledger.NewProcessor(ledger.NewEngine(log)))
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger, runMigrations bool) (storage.Store, error) {
	if cfg.Storage.Backend == config.BackendMemory {
		return memory.NewStore(), nil
	}
	if runMigrations {
		if _, err := migrations.Up(cfg.PostgresURL(), log); err != nil {
			return nil, fmt.Errorf("migrations.Up: %w", err)
		}
	}
	store, err := sqlconfig.Open(ctx, cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("sqlconfig.Open: %w", err)
	}
	return store, nil
}

func openPublisher(cfg *config.Config, log *logrus.Logger) (events.Publisher, error) {
	if cfg.Events.AMQPURL == "" {
		return events.NewLogPublisher(log), nil
	}
	p, err := amqp.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		return nil, fmt.Errorf("amqp.NewPublisher: %w", err)
	}
	return events.NewBuffered(p, cfg.Events.BufferSize, log), nil
}

// close drains the operators before the store and publisher they write to.
func (a *app) close() {
	a.delegator.Stop()
	if err := a.publisher.Close(); err != nil {
		a.log.WithError(err).Warn("Publisher.Close.Error")
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("Store.Close.Error")
	}
}

func serve(c *cli.Context) error {
	a, err := setup(c.Context, c.Bool("migrate"))
	if err != nil {
		return err
	}
	defer a.close()

	rest := api.Rest{
		Logger:  a.log,
		Port:    a.cfg.HTTP.Port,
		Service: a.svc,
	}
	return rest.Serve(c.Context)
}

func migrate(c *cli.Context) error {
	cfg, err := config.ProcessEnvironmentVariables()
	if err != nil {
		return fmt.Errorf("config.ProcessEnvironmentVariables: %w", err)
	}
	log := logging.SetupLogging(cfg.Log.Level)
	if cfg.Storage.Backend != config.BackendPostgres {
		return cli.Exit("migrate: storage.backend is not postgres", 2)
	}
	_, err = migrations.Up(cfg.PostgresURL(), log)
	return err
}

var errDrift = errors.New("to be budgeted drifted")

func audit(c *cli.Context) error {
	a, err := setup(c.Context, false)
	if err != nil {
		return err
	}
	defer a.close()

	repair := c.Bool("repair")
	reports, err := a.svc.Budget.AuditToBeBudgeted(c.Context, repair)
	if err != nil {
		return err
	}

	drifted := 0
	for _, r := range reports {
		entry := a.log.WithFields(logrus.Fields{
			"budgetID":   r.BudgetID,
			"stored":     r.Stored,
			"recomputed": r.Recomputed,
		})
		if r.Consistent {
			entry.Info("Audit.Consistent")
			continue
		}
		drifted++
		if repair {
			entry.Warn("Audit.Repaired")
		} else {
			entry.Error("Audit.Drift")
		}
	}
	a.log.WithFields(logrus.Fields{"budgets": len(reports), "drifted": drifted}).Info("Audit.Complete")
	if drifted > 0 && !repair {
		return cli.Exit(fmt.Errorf("%w in %d budget(s)", errDrift, drifted), 1)
	}
	return nil
}
