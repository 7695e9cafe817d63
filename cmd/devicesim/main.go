package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sokoerp/etims-bridge/cmd/flags"
	"github.com/sokoerp/etims-bridge/httpserver"
	"github.com/sokoerp/etims-bridge/simulator"
)

func main() {
	app := &cli.App{
		Name:  "devicesim",
		Usage: "Serve a local demo tax device over HTTP",
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.LogServiceFlagFn("devicesim"),
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flags.ListenAddrFlag.Name))

			responder := simulator.New(logger)
			handler := httpserver.NewHandler(responder, logger)

			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Demo device server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
