package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"salonpro-notifier/config"
	"salonpro-notifier/routes"
	"salonpro-notifier/services"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	noScheduler bool
	skipMigrate bool
)

// ServeCmd starts the operator API and the reminder scheduler.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the reminder scheduler",
	RunE:  runServe,
}

func init() {
	ServeCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Serve the API only; another instance runs the routines")
	ServeCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not migrate the schema on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.settings.RequireJWT(); err != nil {
		return err
	}
	if !skipMigrate {
		if err := config.Migrate(a.db); err != nil {
			return err
		}
	}

	gin.SetMode(a.settings.GinMode)
	dispatcher := services.NewAppointmentDispatcher(a.log, services.NewStatusNotifier(a.reminders, a.log))
	router := routes.SetupRouter(routes.Deps{
		Settings:   a.settings,
		Log:        a.log,
		DB:         a.db,
		Reminders:  a.reminders,
		Dispatcher: dispatcher,
		Gateway:    a.store,
		NewClient:  a.newClient,
		Metrics:    a.registry,
	})

	for _, route := range router.Routes() {
		a.log.Debug().Str("method", route.Method).Str("path", route.Path).Msg("route")
	}

	if !noScheduler {
		scheduler, err := services.NewReminderScheduler(a.settings.ScanSchedule, a.reminders, a.log)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + a.settings.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "http shutdown")
}
