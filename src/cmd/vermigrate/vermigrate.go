package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/vermigrate/vermigrate/src/cmd/vermigrate/internal/flag"
	"github.com/vermigrate/vermigrate/src/configs"
	"github.com/vermigrate/vermigrate/src/consts"
	"github.com/vermigrate/vermigrate/src/log"
	"github.com/vermigrate/vermigrate/src/pkg/docfile"
	"github.com/vermigrate/vermigrate/src/pkg/migrate"
	"github.com/vermigrate/vermigrate/src/pkg/migrate/examples/watchlist"
)

func getConfig() (*configs.Config, error) {
	var config *configs.Config
	if *flag.Conf != "" {
		c, err := configs.NewConfigWithFile(*flag.Conf)
		if err != nil {
			return nil, err
		}
		config = c
	} else {
		config = flag.GenConfigFromFlags()
	}
	return config, config.Verify()
}

func main() {
	config, err := getConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := log.New(config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	info := consts.GetAppInfo()
	logger.WithFields(logrus.Fields{
		"app_version": info.AppVersion,
		"git_hash":    info.GitHash,
		"pid":         info.Pid,
		"platform":    info.Platform,
	}).Info("vermigrate started")

	if len(config.Documents) == 0 {
		logger.Warn("nothing to migrate, pass --input/--to or a config file with documents")
		return
	}

	m := migrate.New(
		migrate.WithLogger(logger),
		migrate.WithCacheSize(config.CacheSize),
		migrate.WithMetrics(migrate.NewMetrics(prometheus.DefaultRegisterer)),
	)
	watchlist.RegisterSteps(m)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, doc := range config.Documents {
		if err := migrateDocument(ctx, m, config, doc, logger); err != nil {
			logger.WithError(err).WithField("path", doc.Path).Error("migration failed")
			failed++
		}
	}
	if failed > 0 {
		logger.WithField("failed", failed).Error("some documents failed to migrate")
		os.Exit(1)
	}
}

func migrateDocument(ctx context.Context, m *migrate.Migrator, config *configs.Config,
	doc configs.Document, logger logrus.FieldLogger) error {
	field := doc.VersionField
	if field == "" {
		field = config.VersionField
	}
	f, err := docfile.New(doc.Path, docfile.WithVersionField(field), docfile.WithLogger(logger))
	if err != nil {
		return err
	}

	direction := migrate.Forward
	if doc.Backward {
		direction = migrate.Backward
	}

	report, err := f.Migrate(ctx, m, configs.ParseVersion(doc.To), direction)
	if err != nil {
		return err
	}
	if !report.Changed {
		logger.WithFields(logrus.Fields{
			"path":    report.Path,
			"version": fmt.Sprintf("%v", report.From),
		}).Info("document already at target version")
		return nil
	}
	logger.WithFields(logrus.Fields{
		"path":   report.Path,
		"from":   fmt.Sprintf("%v", report.From),
		"to":     fmt.Sprintf("%v", report.To),
		"backup": report.BackupPath,
	}).Info("document migrated")
	return nil
}
