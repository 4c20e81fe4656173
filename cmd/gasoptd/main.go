package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/archive"
	"github.com/GoSim-25-26J-441/userop-gasopt/internal/gasoptd"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
)

func main() {
	var grpcAddr string
	var httpAddr string
	var logLevel string
	var logFile string
	var archiveDir string

	flag.StringVar(&grpcAddr, "grpc-addr", ":50051", "gRPC listen address")
	flag.StringVar(&httpAddr, "http-addr", ":8080", "HTTP listen address")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&logFile, "log-file", "", "rotate logs into this file instead of stdout")
	flag.StringVar(&archiveDir, "archive-dir", "", "badger directory for completed runs (disabled when empty)")
	flag.Parse()

	logger.Setup(logger.Options{
		Level:  logLevel,
		Format: "text",
		File:   logger.FileOptions{Filename: logFile, MaxSizeMB: 100, MaxBackups: 3},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	registry, metrics, err := gasoptd.NewRegistry()
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		stop()
		os.Exit(1)
	}

	store := gasoptd.NewRunStore()
	executor := gasoptd.NewRunExecutor(store).
		WithMetrics(metrics).
		WithNotifier(gasoptd.NewNotifier())
	httpHandler := gasoptd.NewHTTPServer(store, executor).WithMetricsGatherer(registry)

	var arc *archive.Store
	if archiveDir != "" {
		if arc, err = archive.Open(archiveDir); err != nil {
			logger.Error("failed to open archive", "dir", archiveDir, "error", err)
			stop()
			os.Exit(1)
		}
		executor.WithArchive(arc)
		httpHandler.WithArchive(arc)
		logger.Info("archive opened", "dir", archiveDir)
	}

	// TODO: Configure gRPC server security (TLS, authentication) before exposing the daemon publicly.
	grpcServer := grpc.NewServer()
	gasoptd.RegisterOptimizerServiceServer(grpcServer, gasoptd.NewOptimizerGRPCServer(store, executor))

	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Error("failed to listen for gRPC", "addr", grpcAddr, "error", err)
		stop()
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           httpHandler.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("gRPC server listening", "addr", grpcAddr)
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if err := executor.Shutdown(shutdownCtx); err != nil {
		logger.Error("executor shutdown error", "error", err)
	}
	if arc != nil {
		if err := arc.Close(); err != nil {
			logger.Error("archive close error", "error", err)
		}
	}
}
