package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/openvenue/matchcore/pkg/clearing"
	"github.com/openvenue/matchcore/pkg/engine"
	"github.com/openvenue/matchcore/pkg/feed"
	postgres_wrapper "github.com/openvenue/matchcore/pkg/infra/postgres"
	redis_wrapper "github.com/openvenue/matchcore/pkg/infra/redis"
	"github.com/openvenue/matchcore/pkg/kafkawrapper"
	"github.com/openvenue/matchcore/pkg/logging"
)

type KafkaConfig struct {
	Producer kafkawrapper.ProducerConfig `yaml:"producer"`
	Consumer kafkawrapper.ConsumerConfig `yaml:"consumer"`
	Topic    string                      `yaml:"topic"`
}

type AppConfig struct {
	ServiceName string         `yaml:"service_name"`
	Logging     logging.Config `yaml:"logging"`

	Engine   engine.Config           `yaml:"engine"`
	Ingress  engine.IngressConfig    `yaml:"ingress"`
	Reports  engine.UDPReportsConfig `yaml:"reports"`
	Feed     feed.UDPConfig          `yaml:"feed"`
	Clearing clearing.ClientConfig   `yaml:"clearing"`

	Kafka   *KafkaConfig                     `yaml:"kafka"`
	Redis   *redis_wrapper.RedisConfig       `yaml:"redis"`
	TradeDB *postgres_wrapper.PostgresConfig `yaml:"trade_db"`
}

// Load reads the yaml config, expanding ${ENV} references first.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("filePath", filePath)
	sugar.Debug("load config")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("failed to parse config file")
		return nil, err
	}
	return cfg, nil
}
