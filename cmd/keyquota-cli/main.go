package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/keyquota/pkg/cli"
)

func main() {
	logger := setupLogger(os.Getenv("KEYQUOTA_CLI_LOG_LEVEL"))
	cli.SetLogger(logger)

	if err := cli.NewRootCommand().Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	return logger
}
