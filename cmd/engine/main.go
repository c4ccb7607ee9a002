package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openvenue/matchcore/config"
	"github.com/openvenue/matchcore/pkg/clearing"
	"github.com/openvenue/matchcore/pkg/engine"
	"github.com/openvenue/matchcore/pkg/feed"
	redis_wrapper "github.com/openvenue/matchcore/pkg/infra/redis"
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

	go func() {
		http.ListenAndServe("localhost:6060", nil) // nolint
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	fd, err := feed.NewUDP(cfg.Feed, logger)
	if err != nil {
		logger.Fatal("feed dial failed", zap.Error(err))
	}
	defer fd.Close()
	go fd.RunHeartbeat(time.Second, ctx.Done())

	reports, err := engine.NewUDPReports(cfg.Reports, logger)
	if err != nil {
		logger.Fatal("report dial failed", zap.Error(err))
	}
	defer reports.Close()

	var mirrors []engine.TradeMirror
	if cfg.Redis != nil {
		rdb, err := redis_wrapper.InitRedis(cfg.Redis)
		if err != nil {
			logger.Fatal("redis init failed", zap.Error(err))
		}
		cache := engine.NewReferenceCache(rdb, logger)
		go cache.Run(ctx)
		mirrors = append(mirrors, cache)
	}
	if cfg.Kafka != nil {
		prod := kafkawrapper.NewProducer(cfg.Kafka.Producer)
		defer prod.Close() // nolint
		mirrors = append(mirrors, engine.NewKafkaMirror(prod, cfg.Kafka.Topic, logger))
	}

	dispatcher := engine.NewDispatcher(cfg.Engine, fd, reports, mirrors, logger)
	go dispatcher.Run(ctx)

	clr := clearing.NewClient(cfg.Clearing, logger)
	go clr.Run(ctx)
	go dispatcher.ConsumeUpdates(ctx, clr.Updates())

	ingress, err := engine.NewIngress(cfg.Ingress, dispatcher, logger)
	if err != nil {
		logger.Fatal("ingress bind failed", zap.Error(err))
	}
	go ingress.Run(ctx)

	logger.Info("engine started",
		zap.Int("lanes", cfg.Engine.Lanes),
		zap.String("ingress", ingress.LocalAddr().String()))

	<-sigs
	logger.Info("shutting down")
	cancel()
}
