package root

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	creds "github.com/soluchok/tgquery/pkg/config"
	"github.com/soluchok/tgquery/pkg/console"
	"github.com/soluchok/tgquery/pkg/devices"
	"github.com/soluchok/tgquery/pkg/extractor"
	"github.com/soluchok/tgquery/pkg/logger"
	"github.com/soluchok/tgquery/pkg/session"
	"github.com/soluchok/tgquery/pkg/telegram"
	"github.com/soluchok/tgquery/pkg/webview"
)

const (
	flagConfigName  = "config"
	flagConfigValue = "config.json"
	flagConfigUsage = "JSON file with api_id and api_hash"

	flagEnvName  = "env"
	flagEnvValue = ".env"
	flagEnvUsage = "optional dotenv file loaded before anything else"

	flagSessionsName  = "sessions"
	flagSessionsValue = "sessions"
	flagSessionsUsage = "directory with one session file per phone number"

	flagDevicesName  = "devices"
	flagDevicesValue = "devices.json"
	flagDevicesUsage = "device catalog file, downloaded on first run"

	flagDevicesURLName  = "devices-url"
	flagDevicesURLUsage = "where the device catalog is downloaded from"

	flagOutputName      = "output"
	flagOutputShorthand = "o"
	flagOutputValue     = "query.txt"
	flagOutputUsage     = "file name for the collected query data"

	flagProxyName  = "proxy"
	flagProxyUsage = "socks5:// or http:// proxy for Telegram connections"

	flagRPSName  = "rps"
	flagRPSUsage = "Telegram requests per second, 0 means unlimited"

	flagLogLevelName  = "log-level"
	flagLogLevelValue = "info"
	flagLogLevelUsage = "debug, info, warn or error"

	flagLogFileName  = "log-file"
	flagLogFileUsage = "rotated JSON log file, console only when empty"
)

const devicesFetchTimeout = 30 * time.Second

var flagNames = []string{
	flagConfigName,
	flagEnvName,
	flagSessionsName,
	flagDevicesName,
	flagDevicesURLName,
	flagOutputName,
	flagProxyName,
	flagRPSName,
	flagLogLevelName,
	flagLogFileName,
}

func New() *cobra.Command {
	var cmd = &cobra.Command{
		Use:           "tgquery",
		Short:         "tgquery collects Telegram web app query data for every stored account.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.PersistentFlags().GetString(flagEnvName)
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			for _, name := range flagNames {
				if err := viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name)); err != nil {
					return err
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg *config
			if err := errors.Join(viper.Unmarshal(&cfg), cfg.Validate()); err != nil {
				return err
			}

			return run(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().String(flagConfigName, flagConfigValue, flagConfigUsage)
	cmd.PersistentFlags().String(flagEnvName, flagEnvValue, flagEnvUsage)
	cmd.PersistentFlags().String(flagSessionsName, flagSessionsValue, flagSessionsUsage)
	cmd.PersistentFlags().String(flagDevicesName, flagDevicesValue, flagDevicesUsage)
	cmd.PersistentFlags().String(flagDevicesURLName, devices.DefaultURL, flagDevicesURLUsage)
	cmd.PersistentFlags().StringP(flagOutputName, flagOutputShorthand, flagOutputValue, flagOutputUsage)
	cmd.PersistentFlags().String(flagProxyName, "", flagProxyUsage)
	cmd.PersistentFlags().Float64(flagRPSName, 0, flagRPSUsage)
	cmd.PersistentFlags().String(flagLogLevelName, flagLogLevelValue, flagLogLevelUsage)
	cmd.PersistentFlags().String(flagLogFileName, "", flagLogFileUsage)

	return cmd
}

// run loads everything the menu needs and then hands the terminal to it.
// Startup failures are returned before the console is opened.
func run(ctx context.Context, cfg *config) error {
	logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = logger.Close() }()

	fs := afero.NewOsFs()

	app, err := creds.Load(fs, cfg.Config)
	if err != nil {
		return err
	}

	catalog, err := devices.Load(ctx, fs, cfg.Devices, cfg.DevicesURL, devices.NewHTTPFetcher(devicesFetchTimeout))
	if err != nil {
		return err
	}
	logger.Debug("Device catalog loaded", zap.String("path", cfg.Devices), zap.Int("profiles", catalog.Len()))

	store, err := session.NewStore(fs, cfg.Sessions)
	if err != nil {
		return err
	}

	if cfg.Proxy != "" {
		if err := telegram.CheckProxy(ctx, cfg.Proxy); err != nil {
			logger.Warn("Proxy check failed", zap.String("proxy", cfg.Proxy), zap.Error(err))
		}
	}

	dialer := telegram.NewDialer(telegram.ClientOptions{
		AppID:   app.AppID,
		AppHash: app.AppHash,
		Proxy:   cfg.Proxy,
		Logger:  logger.Named("mtproto"),
		RPS:     cfg.RPS,
	}, store)

	con, err := console.New()
	if err != nil {
		return err
	}
	defer func() { _ = con.Close() }()

	logger.SetWriter(con.Stderr())
	defer logger.SetWriter(nil)

	stop := context.AfterFunc(ctx, con.Interrupt)
	defer stop()

	ext := extractor.New(extractor.Options{
		Console:   con,
		Dialer:    dialer,
		QR:        dialer,
		Requester: webview.NewRequester(logger.Named("webview")),
		Sessions:  store,
		Devices:   catalog,
		Fs:        fs,
		Output:    cfg.Output,
		BotToken:  app.BotToken,
		Log:       logger.Named("extractor"),
	})

	return ext.Run(ctx)
}

func Execute() {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := New().ExecuteContext(ctx); err != nil {
		logger.Error("tgquery failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}
