package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/budget-ledger/internal/handlers/v1/account"
	"github.com/carson-networks/budget-ledger/internal/handlers/v1/budget"
	"github.com/carson-networks/budget-ledger/internal/handlers/v1/category"
	"github.com/carson-networks/budget-ledger/internal/handlers/v1/status"
	"github.com/carson-networks/budget-ledger/internal/handlers/v1/transaction"
	"github.com/carson-networks/budget-ledger/internal/logging"
	"github.com/carson-networks/budget-ledger/internal/service"
)

const shutdownTimeout = 15 * time.Second

type Rest struct {
	Logger  *logrus.Logger
	Port    string
	Service *service.Service
}

type registrar interface {
	Register(api huma.API)
}

// Handler builds the huma API over a ServeMux with every v1 route.
func (r *Rest) Handler() http.Handler {
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("Budget Ledger", "1.0.0"))
	api.UseMiddleware(logging.Middleware(r.Logger))

	handlers := []registrar{
		status.NewHandler(),
		budget.NewHandler(r.Service.Budget),
		account.NewCreateAccountHandler(r.Service.Account),
		account.NewListAccountsHandler(r.Service.Account),
		category.NewHandler(r.Service.Category),
		transaction.NewCreateTransactionHandler(r.Service.Transaction),
		transaction.NewUpdateTransactionHandler(r.Service.Transaction),
		transaction.NewDeleteTransactionHandler(r.Service.Transaction),
		transaction.NewListTransactionsHandler(r.Service.Transaction),
	}
	for _, h := range handlers {
		h.Register(api)
	}
	return mux
}

// Serve listens until ctx is cancelled, then shuts the server down.
func (r *Rest) Serve(ctx context.Context) error {
	server := http.Server{
		Addr:              ":" + r.Port,
		Handler:           r.Handler(),
		ReadTimeout:       time.Duration(30) * time.Second,
		WriteTimeout:      time.Duration(30) * time.Second,
		IdleTimeout:       time.Duration(10) * time.Second,
		ReadHeaderTimeout: time.Duration(10) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.Logger.WithField("port", r.Port).Info("HttpServer.Serve.listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			r.Logger.WithError(err).Error("HttpServer.Serve.listen error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	r.Logger.Info("HttpServer.Serve.shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
