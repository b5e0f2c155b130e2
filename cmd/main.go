package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"asset-stream-manager/api"
	"asset-stream-manager/config"
	"asset-stream-manager/controller"
	"asset-stream-manager/health"
	"asset-stream-manager/metrics"
	"asset-stream-manager/process"
	"asset-stream-manager/provisioner"
	"asset-stream-manager/queues"
	qpubsub "asset-stream-manager/queues/pubsub"
	"asset-stream-manager/session"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	version = "source"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:          "asset-stream-manager",
	Short:        "Streams workstation directories to gamelets",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "asset-stream-manager %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "JSON file with settings overriding the environment")
	rootCmd.AddCommand(versionCmd)
}

func setLogger(level, dir string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stdout
	if dir != "" {
		out = &lumberjack.Logger{
			Filename:   filepath.Join(dir, "asset-stream-manager.log"),
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     14,
		}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func newProvisioner(cfg *config.Config) (provisioner.Provisioner, error) {
	if cfg.InstanceIP != "" {
		log.Info().Str("host", cfg.InstanceIP).Int("port", cfg.InstancePort).Msg("using static gamelet endpoint")
		return provisioner.NewStatic(cfg.InstanceIP, cfg.InstancePort)
	}
	if cfg.Provisioner == "agones" {
		log.Info().Str("namespace", cfg.TargetNamespace).Msg("resolving gamelets through Agones")
		return provisioner.NewAgones(cfg.TargetNamespace), nil
	}
	log.Info().Str("ggpPath", cfg.GGPPath).Msg("provisioning gamelets with ggp ssh init")
	return provisioner.NewSSH(cfg.GGPPath, process.ExecFactory{}), nil
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if cfgFile != "" {
		if err := cfg.LoadFromFile(cfgFile); err != nil {
			return err
		}
	}
	setLogger(cfg.LogLevel, cfg.LogDir)
	log.Info().Msgf("Starting asset-stream-manager version: %s", version)
	if cfgFile != "" {
		log.Info().Str("file", cfgFile).Strs("flags", cfg.FlagsReadFromFile()).Msg("config overrides applied")
		for key, msg := range cfg.FlagReadErrors() {
			log.Warn().Str("file", cfgFile).Str("key", key).Msg(msg)
		}
	}
	log.Info().Interface("config", cfg.Redacted()).Msg("config loaded")

	// Context and shutdown handling
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher metrics.EventPublisher
	if cfg.EventTopic != "" {
		if cfg.CredentialsFile != "" {
			log.Info().Str("credsFile", cfg.CredentialsFile).Msg("using explicit Google credentials file")
		} else {
			log.Info().Msg("using default Google credentials (ambient)")
		}
		publisher = qpubsub.NewPublisher(cfg.GoogleProjectID, cfg.EventTopic, cfg.CredentialsFile)
	}
	prov, err := newProvisioner(cfg)
	if err != nil {
		return fmt.Errorf("configure provisioner: %w", err)
	}
	events := metrics.NewService(publisher, cfg.EventQueueSize)
	go events.Run(ctx)

	registry := session.NewRegistry(events)
	ctrl := controller.NewController(registry, prov, events)

	// gRPC server
	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr(), err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	api.RegisterLocalAssetsStreamManagerServer(grpcServer, ctrl)
	healthServer := grpchealth.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	var serving atomic.Bool
	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("starting gRPC server")
		serving.Store(true)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc server error")
			stop()
		}
	}()

	// Metrics and health HTTP server
	mux := http.NewServeMux()
	metrics.Register(mux)
	health.Register(mux, serving.Load, registry.Sessions)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr()).Msg("starting metrics/health server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	if cfg.Subscription != "" {
		subscriber := qpubsub.NewSubscriber(cfg.GoogleProjectID, cfg.Subscription, cfg.CredentialsFile)
		go func() {
			log.Info().Str("subscription", cfg.Subscription).Msg("starting subscriber loop")
			if err := subscriber.Start(ctx, func(ctx context.Context, req *queues.SessionRequest) error {
				return ctrl.Handle(ctx, req)
			}); err != nil {
				// Local RPCs keep working without the subscription.
				log.Error().Err(err).Msg("subscriber exited")
			}
		}()
	}

	// Block until shutdown
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
	serving.Store(false)
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server graceful shutdown failed")
	}
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
