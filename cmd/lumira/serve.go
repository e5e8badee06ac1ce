package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/pavelanni/lumira/internal/handler"
	"github.com/pavelanni/lumira/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, gatherer := newPrometheusRecorder()
	a, err := newApp(ctx, v, rec)
	if err != nil {
		return err
	}
	defer a.Close()

	h := handler.New(a.bot, handler.Options{
		TokenHash: v.GetString("api-token-hash"),
		Exporter:  a.db,
		Gatherer:  gatherer,
	})
	if v.GetString("api-token-hash") == "" {
		slog.Warn("api-token-hash not set, /api is unauthenticated")
	}

	srv := &http.Server{
		Addr:              v.GetString("addr"),
		Handler:           h.Router(a.cfg.Lang),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	if token := v.GetString("telegram-token"); token != "" {
		api, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		slog.Info("telegram bot authorized", "username", api.Self.UserName)
		tg := telegram.New(api, a.bot, a.cfg.Lang)
		wg.Add(1)
		go func() {
			defer wg.Done()
			tg.Run(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	wg.Wait()
	return nil
}
