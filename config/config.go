package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DriverSQLite    = "sqlite3"
	DriverSQLServer = "sqlserver"
)

type Config struct {
	Addr     string
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Debug    bool           `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Migrate         bool          `mapstructure:"migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var reWildcardHost = regexp.MustCompile(`^0\.0\.0\.0`)

// Load reads configuration from (in increasing priority) defaults, an optional
// config.yaml, QSURVEY_* environment variables and command line flags.
func Load(args []string) (cfg Config, err error) {
	v := viper.New()
	setDefaults(v)

	flags := pflag.NewFlagSet("qsurvey", pflag.ContinueOnError)
	flags.String("host", "0.0.0.0", "listen host name")
	flags.Uint("port", 8080, "listen port number")
	flags.String("db-driver", DriverSQLite, "database driver (sqlite3|sqlserver)")
	flags.String("db-url", "qsurvey.sqlite", "SQLite3 file path or SQL Server DSN")
	flags.Bool("db-migrate", true, "apply embedded schema migrations at startup")
	flags.String("config", "", "path to a configuration file")
	flags.Bool("debug", false, "log at DEBUG level")
	if err = flags.Parse(args); err != nil {
		return
	}

	for key, flag := range map[string]string{
		"server.host":      "host",
		"server.port":      "port",
		"database.driver":  "db-driver",
		"database.url":     "db-url",
		"database.migrate": "db-migrate",
		"debug":            "debug",
	} {
		if err = v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return
		}
	}

	v.SetEnvPrefix("qsurvey")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			err = fmt.Errorf("reading config file: %w", err)
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&cfg); err != nil {
		err = fmt.Errorf("unmarshaling config: %w", err)
		return
	}
	cfg.Addr = net.JoinHostPort(v.GetString("server.host"), v.GetString("server.port"))

	err = cfg.validate()
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.url", "qsurvey.sqlite")
	v.SetDefault("database.migrate", true)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	v.SetDefault("debug", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (cfg Config) validate() error {
	switch cfg.Database.Driver {
	case DriverSQLite, DriverSQLServer:
	default:
		return fmt.Errorf("unsupported database driver %q (want %s|%s)", cfg.Database.Driver, DriverSQLite, DriverSQLServer)
	}
	if cfg.Database.URL == "" {
		return errors.New("missing parameter -db-url")
	}
	return nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = reWildcardHost.ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
