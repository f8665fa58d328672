package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jwhitehead/payagg/internal/config"
	"github.com/jwhitehead/payagg/internal/discovery"
	"github.com/jwhitehead/payagg/internal/notify"
	"github.com/jwhitehead/payagg/internal/pipeline"
	"github.com/jwhitehead/payagg/internal/refstore"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	configPath string
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:           "payagg",
	Short:         "Aggregate BPY331 payment batch files by payee",
	Long:          "payagg picks up the most recent unprocessed BPY331 batch file, sums the payments of each payee and rewrites the file with one record per payee.",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "payagg.yaml", "path to config file")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "override the batch file directory")
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}

func run(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	log, err := newLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer log.Sync()

	store, err := refstore.Open(cfg.StorePath)
	if err != nil {
		log.Error("reference store unavailable", zap.Error(err))
		return err
	}
	defer store.Close()

	var mailer pipeline.Notifier
	if cfg.SMTP.Host != "" {
		mailer = &notify.Mailer{Host: cfg.SMTP.Host, From: cfg.SMTP.From, To: cfg.SMTP.To}
	}

	summary, err := pipeline.New(cfg, store, mailer, log).Run(cmd.Context())
	if err != nil {
		if errors.Is(err, discovery.ErrNoEligibleFile) {
			log.Info("no eligible batch file")
			return err
		}
		log.Error("run failed", zap.Error(err))
		return err
	}

	fmt.Println(summary.Message)
	return nil
}

func newLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, path)
	}
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
