package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/session"
	"github.com/spigell/interview-coach/internal/telemetry"
	"github.com/spigell/interview-coach/internal/transport/rest"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve interviews over HTTP, the voice-agent webhook and websockets",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")
	serveCmd.Flags().StringP("store", "s", "", "session store backend: memory, redis, sqlite or mongo")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("store.backend", serveCmd.Flags().Lookup("store"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.Server == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the interview-coach server", zap.String("version", version))

	otelConfig, err := telemetry.ConfigFromEnv()
	if err != nil {
		logger.Fatal("reading telemetry config", zap.Error(err))
	}
	shutdownTracing, err := telemetry.Setup(ctx, otelConfig, app, version)
	if err != nil {
		logger.Fatal("setting up tracing", zap.Error(err))
	}
	if otelConfig.Active() {
		logger.Info("tracing enabled", zap.String("endpoint", otelConfig.Endpoint))
	}

	engine, err := newEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the interview engine", zap.Error(err))
	}

	store, closeStore, err := openStore(ctx, config.Store, logger)
	if err != nil {
		logger.Fatal("opening the session store", zap.Error(err))
	}

	router := rest.NewRouter(&rest.Container{
		Sessions:       session.NewManager(engine, store, logger.Named("sessions")),
		DefaultSession: config.Server.DefaultSession,
		Logger:         logger.Named("http"),
	})

	server := &http.Server{
		Addr:              config.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(
			server.Shutdown(shutdownCtx),
			closeStore(shutdownCtx),
			shutdownTracing(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}

	logger.Info("server stopped")
}
