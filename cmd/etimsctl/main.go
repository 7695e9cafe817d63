package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sokoerp/etims-bridge/api/clients"
	"github.com/sokoerp/etims-bridge/cmd/flags"
	"github.com/sokoerp/etims-bridge/config"
	"github.com/sokoerp/etims-bridge/interfaces"
	"github.com/sokoerp/etims-bridge/registry"
	"github.com/sokoerp/etims-bridge/storage"
	"github.com/sokoerp/etims-bridge/transmission"
)

var sinceFlag = &cli.StringFlag{
	Name:  "since",
	Usage: "device timestamp (yyyyMMddHHmmss) to fetch changes since",
}

func main() {
	app := &cli.App{
		Name:  "etimsctl",
		Usage: "Operate an eTIMS device from the command line",
		Flags: []cli.Flag{
			flags.ConfigFlag,
			flags.LogJsonFlag,
			flags.LogDebugFlag,
			flags.LogUidFlag,
			flags.LogServiceFlagFn("etimsctl"),
		},
		Commands: []*cli.Command{
			{
				Name:      "submit",
				Usage:     "Transmit a document described by a JSON file",
				ArgsUsage: "<document.json>",
				Action:    runSubmit,
			},
			{
				Name:   "init",
				Usage:  "Perform the one-time device initialization handshake",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "serial", Required: true, Usage: "device serial number"}},
				Action: runInit,
			},
			{
				Name:   "codes",
				Usage:  "Fetch the device's standard code tables",
				Flags:  []cli.Flag{sinceFlag},
				Action: fetchAction(func(ctx context.Context, o *transmission.Orchestrator, cCtx *cli.Context) (map[string]any, error) {
					return o.FetchCodeList(ctx, cCtx.String("since"))
				}),
			},
			{
				Name:   "items",
				Usage:  "Fetch the item master list registered on the device",
				Flags:  []cli.Flag{sinceFlag},
				Action: fetchAction(func(ctx context.Context, o *transmission.Orchestrator, cCtx *cli.Context) (map[string]any, error) {
					return o.FetchItems(ctx, cCtx.String("since"))
				}),
			},
			{
				Name:   "branches",
				Usage:  "Fetch the branch list registered for the company TIN",
				Flags:  []cli.Flag{sinceFlag},
				Action: fetchAction(func(ctx context.Context, o *transmission.Orchestrator, cCtx *cli.Context) (map[string]any, error) {
					return o.FetchBranches(ctx, cCtx.String("since"))
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// submitFile is the JSON shape the submit command reads: the document plus
// the catalog entries its lines reference.
type submitFile struct {
	Document transmission.Document               `json:"document"`
	Catalog  map[string]interfaces.CatalogEntry `json:"catalog"`
}

// fileCatalog serves catalog lookups from the submit file.
type fileCatalog map[string]interfaces.CatalogEntry

func (c fileCatalog) Lookup(itemCode string) (interfaces.CatalogEntry, bool) {
	entry, ok := c[itemCode]
	return entry, ok
}

func runSubmit(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return fmt.Errorf("expected exactly one document file argument")
	}

	logger := flags.SetupLogger(cCtx)
	ctx := context.Background()

	data, err := os.ReadFile(cCtx.Args().First())
	if err != nil {
		return fmt.Errorf("could not read document file: %w", err)
	}
	var input submitFile
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("could not parse document file: %w", err)
	}

	orchestrator, err := buildOrchestrator(ctx, cCtx, logger, fileCatalog(input.Catalog))
	if err != nil {
		return err
	}

	receipt, err := orchestrator.Submit(ctx, &input.Document)
	if err != nil {
		return err
	}
	return printJSON(receipt)
}

func runInit(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	ctx := context.Background()

	orchestrator, err := buildOrchestrator(ctx, cCtx, logger, fileCatalog{})
	if err != nil {
		return err
	}

	data, err := orchestrator.Initialize(ctx, cCtx.String("serial"))
	if err != nil {
		return err
	}
	return printJSON(data)
}

func fetchAction(fetch func(context.Context, *transmission.Orchestrator, *cli.Context) (map[string]any, error)) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		logger := flags.SetupLogger(cCtx)
		ctx := context.Background()

		orchestrator, err := buildOrchestrator(ctx, cCtx, logger, fileCatalog{})
		if err != nil {
			return err
		}

		data, err := fetch(ctx, orchestrator, cCtx)
		if err != nil {
			return err
		}
		return printJSON(data)
	}
}

func buildOrchestrator(ctx context.Context, cCtx *cli.Context, logger *slog.Logger, catalog interfaces.Catalog) (*transmission.Orchestrator, error) {
	cfg, err := config.Load(cCtx.String(flags.ConfigFlag.Name))
	if err != nil {
		return nil, err
	}

	creds, err := cfg.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	reg := registry.New(logger, cfg.BaseURLs)

	var opts []clients.Option
	if cfg.Timeout > 0 {
		opts = append(opts, clients.WithTimeout(cfg.Timeout))
	}
	caller, err := clients.NewDeviceClient(creds, reg, logger, opts...)
	if err != nil {
		return nil, err
	}

	var audit interfaces.AuditBackend
	if locations := cfg.AuditLocations(); len(locations) > 0 {
		factory := storage.NewAuditBackendFactory(logger)
		audit, err = factory.CreateMultiBackend(locations)
		if err != nil {
			return nil, err
		}
	}

	return transmission.New(transmission.Config{
		Caller:      caller,
		Catalog:     catalog,
		Credentials: creds,
		Audit:       audit,
		Log:         logger,
	})
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
