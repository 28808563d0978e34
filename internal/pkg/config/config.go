package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration of a ufund process. It is loaded once at
// startup and passed down explicitly; nothing reads it from package globals.
type Config struct {
	Service struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		MySQL struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Kafka struct {
			Brokers      []string `yaml:"brokers"`
			ReceiptTopic string   `yaml:"receipt_topic"`
			MailerGroup  string   `yaml:"mailer_group"`
		} `yaml:"kafka"`
		MailRelay struct {
			URL  string `yaml:"url"`
			From string `yaml:"from"`
		} `yaml:"mail_relay"`
	} `yaml:"infra"`

	Checkout struct {
		// Locker selects the per-toy serialization backend: local, redis or zookeeper.
		Locker      string        `yaml:"locker"`
		LockTTL     time.Duration `yaml:"lock_ttl"`
		LineTimeout time.Duration `yaml:"line_timeout"`
	} `yaml:"checkout"`
}

// Load reads the YAML file at path and applies environment overrides for the
// settings that differ between deployments.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if v := os.Getenv("UFUND_MYSQL_DSN"); v != "" {
		cfg.Infra.MySQL.DSN = v
	}
	if v := os.Getenv("UFUND_REDIS_ADDR"); v != "" {
		cfg.Infra.Redis.Addr = v
	}
	if v := os.Getenv("UFUND_KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("UFUND_JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Service.Name = "ufund-server"
	cfg.Service.Port = 8080
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Kafka.ReceiptTopic = "receipt-requests"
	cfg.Infra.Kafka.MailerGroup = "ufund-mailer"
	cfg.Checkout.Locker = "local"
	cfg.Checkout.LockTTL = 10 * time.Second
	cfg.Checkout.LineTimeout = 5 * time.Second
	return cfg
}
