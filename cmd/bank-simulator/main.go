package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/congo-pay/payment_gateway/internal/banksim"
	"github.com/congo-pay/payment_gateway/internal/logging"
)

func main() {
	addr := os.Getenv("BANK_SIMULATOR_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logger := logging.New("bank-simulator", os.Getenv("LOG_LEVEL"))

	srv := &http.Server{
		Addr:              addr,
		Handler:           banksim.New(logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErrCh := make(chan error, 1)
	go func() {
		logger.Info("bank simulator listening", "addr", addr)
		srvErrCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
