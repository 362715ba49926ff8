package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	ConfigFileName      = ".jsonflow"
	ConfigFileExtension = ".yaml"
	EnvPrefix           = "JSONFLOW"

	// annotationConfigOptional lets a command run while --config names a
	// file that does not exist yet.
	annotationConfigOptional = "config-optional"
)

// Config keys.
const (
	KeyLogLevel     = "log.level"
	KeyFetchTimeout = "fetch.timeout"
	KeyRunMode      = "run.mode"
	KeyServerPort   = "server.port"
	KeyServerMode   = "server.mode"
	KeyServerSocket = "server.socket"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *slog.Logger
}

// NewRootCmd builds the command tree with its own configuration.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "jsonflow",
		Short: "jsonflow runs fetch, validate and transform pipelines over JSON",
		Long: `jsonflow executes small dataflow graphs stored as YAML or JSON snapshots.
A graph starts at its start node; text nodes hold URLs, fetch nodes call them,
and evaluator, loop, validity and equality nodes inspect the responses.
  `,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.jsonflow.yaml)")

	rootCmd.AddCommand(
		newRunCmd(a),
		newNodeCmd(a),
		newPresetCmd(),
		newLayoutCmd(),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("error executing root command: %s", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "ERROR")
	v.SetDefault(KeyFetchTimeout, "0s")
	v.SetDefault(KeyRunMode, "once")
	v.SetDefault(KeyServerPort, "8080")
	v.SetDefault(KeyServerMode, "tcp")
	v.SetDefault(KeyServerSocket, "")
}

func defaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName+ConfigFileExtension), nil
}

// initConfig layers defaults, the config file and JSONFLOW_* variables. A
// missing default config file is fine; a missing --config file is not.
func (a *app) initConfig(cmd *cobra.Command) error {
	v := a.v
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyLogLevel, EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL"); err != nil {
		return err
	}

	explicit := cmd.Flags().Changed("config") && a.cfgFile != ""
	path := a.cfgFile
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		path = p
	}

	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
		optional := cmd.Annotations[annotationConfigOptional] == "true"
		if !missing || (explicit && !optional) {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	a.logger = newLogger(v.GetString(KeyLogLevel), cmd.ErrOrStderr())
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARNING", "WARN":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}
