package main

import (
	"flag"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/openvenue/matchcore/config"
	"github.com/openvenue/matchcore/pkg/infra"
	"github.com/openvenue/matchcore/pkg/logging"
)

func main() {
	var configFile string
	var source string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&source, "source", "file://migration/sql", "Migration source")
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

	if err := infra.Migrate(source, cfg.TradeDB.MigrationConnURL); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
}
