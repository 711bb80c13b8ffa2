package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"adhocnet/internal/storage"
)

const envPrefix = "ADHOCNET"

type cliConfig struct {
	Store      string
	DBPath     string
	RunsDir    string
	ExportsDir string
	LogLevel   string
}

// newViper reads flags, ADHOCNET_* environment variables and an optional
// config file, in that order of precedence.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("store", storage.DefaultStoreKind())
	v.SetDefault("db-path", "adhocnet.db")
	v.SetDefault("runs-dir", "runs")
	v.SetDefault("exports-dir", "exports")
	v.SetDefault("log-level", "info")
	return v
}

func bindConfig(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return nil
}

func loadConfig(v *viper.Viper) cliConfig {
	return cliConfig{
		Store:      v.GetString("store"),
		DBPath:     v.GetString("db-path"),
		RunsDir:    v.GetString("runs-dir"),
		ExportsDir: v.GetString("exports-dir"),
		LogLevel:   v.GetString("log-level"),
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
