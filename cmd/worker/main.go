package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/openvenue/matchcore/config"
	"github.com/openvenue/matchcore/pkg/eventrepo"
	postgres_wrapper "github.com/openvenue/matchcore/pkg/infra/postgres"
	"github.com/openvenue/matchcore/pkg/kafkawrapper"
	"github.com/openvenue/matchcore/pkg/logging"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	logger, err := logging.Init(cfg.ServiceName, cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // nolint

	if cfg.Kafka == nil || cfg.TradeDB == nil {
		logger.Fatal("worker requires kafka and trade_db config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.TradeDB)
	if err != nil {
		logger.Fatal("postgres init failed", zap.Error(err))
	}

	cg := kafkawrapper.NewConsumerGroup(cfg.Kafka.Consumer)
	defer cg.Close() // nolint

	w := eventrepo.NewWorker(eventrepo.NewTradeEventSQLRepo(db), logger)
	go func() {
		if err := w.Run(ctx, cg); err != nil {
			logger.Error("worker stopped", zap.Error(err))
			cancel()
		}
	}()

	logger.Info("trade event worker started",
		zap.String("topic", cfg.Kafka.Consumer.Topic))

	select {
	case <-sigs:
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	cancel()
}
