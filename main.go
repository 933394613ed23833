package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/Legiang98/hyperliquid-trading/src/connectors"
	"github.com/Legiang98/hyperliquid-trading/src/controller"
	"github.com/Legiang98/hyperliquid-trading/src/database"
	"github.com/Legiang98/hyperliquid-trading/src/handler"
	"github.com/Legiang98/hyperliquid-trading/src/notify"
	"github.com/Legiang98/hyperliquid-trading/src/repository"
	"github.com/Legiang98/hyperliquid-trading/src/server"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	app := cli.NewApp()
	app.Name = "Hyperliquid Trading CMD"
	app.Usage = "The Hyperliquid trading relay command line interface"

	app.Commands = []cli.Command{
		serveCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var serveCMD = cli.Command{
	Name:        "serve",
	Usage:       "run the webhook relay server",
	Action:      serveAction,
	ArgsUsage:   "",
	Flags:       []cli.Flag{},
	Description: `Run the webhook relay server`,
}

func serveAction(_ *cli.Context) error {
	if err := godotenv.Load(); err != nil {
		logger.WithError(err).Debug("No .env file loaded")
	}

	SetupLogger()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	exchange := connectors.NewClient(connectors.GetConfig())
	orders := repository.NewOrderRepository()
	trades := controller.NewTradeController(exchange, orders, controller.GetConfig())
	telegram := notify.NewTelegram(notify.GetConfig())

	server.StartServer(server.GetConfig().Port, handler.WebhookHandler(trades, telegram))
	return nil
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
