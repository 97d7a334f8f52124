package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/andy6609/linechat/internal/chat"
)

func main() {
	cfg := chat.ConfigFromEnv()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "chat listen address")
	flag.StringVar(&cfg.WebSocketAddr, "ws-addr", cfg.WebSocketAddr, "websocket listen address (empty disables)")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "metrics listen address (empty disables)")
	flag.IntVar(&cfg.OutboundBuffer, "outbound-buffer", cfg.OutboundBuffer, "queued lines per client before it is dropped")
	flag.IntVar(&cfg.MaxNameLength, "max-name-length", cfg.MaxNameLength, "maximum name length in bytes (0 = unlimited)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	srv := chat.NewServer(cfg, logger)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	srv.Stop()
}
