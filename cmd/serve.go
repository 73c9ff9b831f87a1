package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/KaramelBytes/equity-cli/internal/analyzer"
	"github.com/KaramelBytes/equity-cli/internal/chart"
	"github.com/KaramelBytes/equity-cli/internal/utils"
	"github.com/KaramelBytes/equity-cli/internal/web"
)

var (
	srvFlags analyzerFlags
	srvAddr  string
	srvTitle string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzer as a web form with charts and a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !debug {
			logLevel.SetLevel(zapcore.InfoLevel)
			gin.SetMode(gin.ReleaseMode)
		}
		addr := cfg.ListenAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		if err := utils.EnsureDir(cfg.ChartDir); err != nil {
			return fmt.Errorf("chart dir: %w", err)
		}
		charts := chart.NewRenderer(cfg.ChartDir, logger)

		// A dataset that cannot be loaded leaves the form up with an error message.
		var an *analyzer.Analyzer
		ds, err := loadDataset()
		if err != nil {
			logger.Error("dataset not loaded", zap.String("path", cfg.DatasetPath), zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Warning: %v\n", warnMark, err)
		} else if an, err = srvFlags.build(ds, charts); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		retention := time.Duration(cfg.ChartRetentionMin) * time.Minute
		go charts.RunSweeper(ctx, sweepInterval(retention), retention)

		srv := web.New(web.Options{Analyzer: an, ChartDir: cfg.ChartDir, Title: srvTitle, Logger: logger})
		fmt.Fprintf(cmd.OutOrStdout(), "%s Serving on %s (Ctrl+C to stop)\n", okMark, addr)
		return srv.Run(ctx, addr)
	},
}

func sweepInterval(retention time.Duration) time.Duration {
	iv := retention / 4
	if iv < time.Minute {
		iv = time.Minute
	}
	return iv
}

func init() {
	rootCmd.AddCommand(serveCmd)
	srvFlags.register(serveCmd, true)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (overrides config listen_addr)")
	serveCmd.Flags().StringVar(&srvTitle, "title", web.DefaultTitle, "page heading")
}
