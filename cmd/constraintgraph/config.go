package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hanpama/constraintgraph/internal/constraint"
	"github.com/hanpama/constraintgraph/internal/directive"
)

const (
	envPrefix        = "CONSTRAINTGRAPH"
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// Config is the full command configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Schema SchemaConfig `mapstructure:"schema"`
	Log    LogConfig    `mapstructure:"log"`
	Otel   OtelConfig   `mapstructure:"otel"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Path         string        `mapstructure:"path"`
	Pretty       bool          `mapstructure:"pretty"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	Fixtures     string        `mapstructure:"fixtures"`
}

type SchemaConfig struct {
	Files      []string       `mapstructure:"files"`
	Directives DirectiveNames `mapstructure:"directives"`
}

// DirectiveNames renames the constraint directives. An empty name
// disables that directive.
type DirectiveNames struct {
	Str   string `mapstructure:"str"`
	Int   string `mapstructure:"int"`
	Float string `mapstructure:"float"`
	List  string `mapstructure:"list"`
}

// Directives returns the configured directive set.
func (n DirectiveNames) Directives() []directive.Directive {
	return directive.ForKinds(map[constraint.Kind]string{
		constraint.KindString: n.Str,
		constraint.KindInt:    n.Int,
		constraint.KindFloat:  n.Float,
		constraint.KindList:   n.List,
	})
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.path", "/graphql")
	v.SetDefault("server.pretty", false)
	v.SetDefault("server.timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.fixtures", "")
	v.SetDefault("schema.files", []string{})
	v.SetDefault("schema.directives.str", "str")
	v.SetDefault("schema.directives.int", "int")
	v.SetDefault("schema.directives.float", "float")
	v.SetDefault("schema.directives.list", "list")
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service", "constraintgraph")
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"schema":        "schema.files",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"addr":          "server.addr",
	"path":          "server.path",
	"pretty":        "server.pretty",
	"timeout":       "server.timeout",
	"max-body":      "server.max_body_bytes",
	"cors-origin":   "server.cors_origins",
	"fixtures":      "server.fixtures",
	"otel-endpoint": "otel.endpoint",
	"otel-service":  "otel.service",
}

// configLoader loads the configuration once per process and keeps it for
// the subcommand.
type configLoader struct {
	cfg *Config
}

func (l *configLoader) load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("constraintgraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	l.cfg = &cfg
	return &cfg, nil
}

func (l *configLoader) config() *Config {
	if l.cfg == nil {
		l.cfg = &Config{}
	}
	return l.cfg
}

func configureLogging(logger *logrus.Logger, cfg LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	logger.SetLevel(level)
	switch cfg.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", cfg.Format)
	}
	return nil
}
