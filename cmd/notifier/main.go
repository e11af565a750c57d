package main

import (
	"errors"
	stdLog "log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/booktracker/notifier/app"
	"github.com/Astemirdum/booktracker/notifier/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		stdLog.Fatal("load envs from .env ", err)
	}
	app.Run(config.NewConfig(config.WithLogLevel(zapcore.InfoLevel)))
}
