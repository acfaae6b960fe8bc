package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/fundwise/waterfall/internal/analysis"
	"github.com/fundwise/waterfall/internal/api"
	"github.com/fundwise/waterfall/internal/config"
	"github.com/fundwise/waterfall/internal/database"
	"github.com/fundwise/waterfall/internal/domain"
	"github.com/fundwise/waterfall/internal/export"
	"github.com/fundwise/waterfall/internal/scenario"
	"github.com/fundwise/waterfall/internal/waterfall"
	"github.com/fundwise/waterfall/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	app := &cli.App{
		Name:  "waterfall",
		Usage: "two-tier liquidation preference waterfall calculator",
		Commands: []*cli.Command{
			computeCommand(cfg),
			sweepCommand(cfg),
			thresholdsCommand(cfg),
			exportCommand(cfg),
			serveCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// paramFlags are the deal assumptions shared by every calculation command.
// Money flags are denominated in millions.
func paramFlags(cfg config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "fund-size",
			Usage: "total fund size in millions",
			Value: domain.Millions(cfg.FundSize).String(),
		},
		&cli.StringFlag{
			Name:  "post-money",
			Usage: "post-money valuation in millions",
			Value: domain.Millions(cfg.PostMoneyValuation).String(),
		},
		&cli.StringFlag{
			Name:  "contribution",
			Usage: "investor contribution in millions",
			Value: "2",
		},
		&cli.IntFlag{
			Name:  "years",
			Usage: "holding period in whole years",
			Value: 2,
		},
		&cli.StringFlag{
			Name:  "carve-rate",
			Usage: "management carve-out rate (fraction of exit value)",
			Value: cfg.CarveOutRate.String(),
		},
		&cli.StringFlag{
			Name:  "carve-threshold",
			Usage: "exit value in millions below which the carve-out applies; empty means always",
			Value: domain.Millions(cfg.CarveOutThreshold).String(),
		},
		&cli.BoolFlag{
			Name:  "single-tier",
			Usage: "model a direct investment: the contribution is the whole fund",
		},
	}
}

// rangeFlags define the exit value grid, in millions.
func rangeFlags(cfg config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "from",
			Usage: "first exit value in millions",
			Value: domain.Millions(cfg.SweepFrom).String(),
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "last exit value in millions",
			Value: domain.Millions(cfg.SweepTo).String(),
		},
		&cli.StringFlag{
			Name:  "step",
			Usage: "grid step in millions",
			Value: domain.Millions(cfg.SweepStep).String(),
		},
	}
}

func decimalFlag(c *cli.Context, name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.String(name))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid --%s value %q: %w", name, c.String(name), err)
	}
	return d, nil
}

func millionsFlag(c *cli.Context, name string) (decimal.Decimal, error) {
	d, err := decimalFlag(c, name)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return domain.FromMillions(d), nil
}

// paramsFromFlags assembles waterfall parameters from the shared flags.
func paramsFromFlags(c *cli.Context) (waterfall.Parameters, error) {
	fundSize, err := millionsFlag(c, "fund-size")
	if err != nil {
		return waterfall.Parameters{}, err
	}
	postMoney, err := millionsFlag(c, "post-money")
	if err != nil {
		return waterfall.Parameters{}, err
	}
	contribution, err := millionsFlag(c, "contribution")
	if err != nil {
		return waterfall.Parameters{}, err
	}
	carveRate, err := decimalFlag(c, "carve-rate")
	if err != nil {
		return waterfall.Parameters{}, err
	}

	params := waterfall.Parameters{
		FundSize:             fundSize,
		PostMoneyValuation:   postMoney,
		InvestorContribution: contribution,
		HoldingPeriodYears:   c.Int("years"),
		CarveOutRate:         carveRate,
		SingleTier:           c.Bool("single-tier"),
	}

	if raw := c.String("carve-threshold"); raw != "" {
		threshold, err := millionsFlag(c, "carve-threshold")
		if err != nil {
			return waterfall.Parameters{}, err
		}
		params.CarveOutThreshold = &threshold
	}

	return params, nil
}

func rangeFromFlags(c *cli.Context) (from, to, step decimal.Decimal, err error) {
	if from, err = millionsFlag(c, "from"); err != nil {
		return
	}
	if to, err = millionsFlag(c, "to"); err != nil {
		return
	}
	step, err = millionsFlag(c, "step")
	return
}

func computeCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "compute",
		Usage: "evaluate the waterfall for a single exit value",
		Flags: append(paramFlags(cfg), &cli.StringFlag{
			Name:     "exit",
			Usage:    "exit value in millions",
			Required: true,
		}),
		Action: func(c *cli.Context) error {
			params, err := paramsFromFlags(c)
			if err != nil {
				return err
			}
			exit, err := millionsFlag(c, "exit")
			if err != nil {
				return err
			}

			result, err := waterfall.Compute(params.WithExitPrice(exit))
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
}

func sweepCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "evaluate the waterfall across a grid of exit values",
		Flags: append(paramFlags(cfg), rangeFlags(cfg)...),
		Action: func(c *cli.Context) error {
			params, err := paramsFromFlags(c)
			if err != nil {
				return err
			}
			from, to, step, err := rangeFromFlags(c)
			if err != nil {
				return err
			}
			grid, err := analysis.Range(from, to, step)
			if err != nil {
				return err
			}

			results, err := analysis.SweepAll(params, grid)
			if err != nil {
				return err
			}
			printSweepTable(results)
			return nil
		},
	}
}

func thresholdsCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "thresholds",
		Usage: "find the minimum exit value reaching each target MOIC",
		Flags: append(append(paramFlags(cfg), rangeFlags(cfg)...),
			&cli.StringSliceFlag{
				Name:  "target",
				Usage: "target MOIC multiples",
				Value: cli.NewStringSlice("1.0", "1.5", "2.0", "3.0", "5.0"),
			}),
		Action: func(c *cli.Context) error {
			params, err := paramsFromFlags(c)
			if err != nil {
				return err
			}
			from, to, step, err := rangeFromFlags(c)
			if err != nil {
				return err
			}

			for _, raw := range c.StringSlice("target") {
				target, err := decimal.NewFromString(raw)
				if err != nil {
					return fmt.Errorf("invalid --target value %q: %w", raw, err)
				}
				exit, err := analysis.MinimumExitFor(params, target, from, to, step)
				if err != nil {
					return err
				}
				if exit == nil {
					fmt.Printf("%6sx  not reached on grid\n", target)
					continue
				}
				fmt.Printf("%6sx  %s\n", target, domain.FormatMillions(*exit))
			}
			return nil
		},
	}
}

func exportCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the sensitivity sweep to a spreadsheet",
		Flags: append(append(paramFlags(cfg), rangeFlags(cfg)...),
			&cli.StringFlag{
				Name:  "out",
				Usage: "output .xlsx path",
				Value: "sensitivity.xlsx",
			},
			&cli.BoolFlag{
				Name:  "sheets",
				Usage: "write to the configured Google Sheets spreadsheet instead of a local file",
			}),
		Action: func(c *cli.Context) error {
			params, err := paramsFromFlags(c)
			if err != nil {
				return err
			}
			from, to, step, err := rangeFromFlags(c)
			if err != nil {
				return err
			}
			grid, err := analysis.Range(from, to, step)
			if err != nil {
				return err
			}

			writer, err := newSheetWriter(c.Context, c, cfg)
			if err != nil {
				return err
			}

			if err := export.NewService(writer).Export(c.Context, params, grid); err != nil {
				return err
			}
			if !c.Bool("sheets") {
				fmt.Printf("wrote %s\n", c.String("out"))
			}
			return nil
		},
	}
}

func newSheetWriter(ctx context.Context, c *cli.Context, cfg config.Config) (export.SheetWriter, error) {
	if !c.Bool("sheets") {
		return export.NewXLSXWriter(c.String("out")), nil
	}
	if cfg.SheetsSpreadsheetID == "" || cfg.SheetsCredentials == "" {
		return nil, fmt.Errorf("--sheets requires SHEETS_SPREADSHEET_ID and SHEETS_CREDENTIALS_JSON")
	}
	return export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentials)
}

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API server",
		Action: func(c *cli.Context) error {
			return serve(cfg)
		},
	}
}

func serve(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var scenarioSvc *scenario.Service
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, scenario persistence disabled")
	} else {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		migrationsSub, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("creating migrations sub-fs: %w", err)
		}
		if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		scenarioSvc = scenario.NewService(scenario.NewPgRepository(pool))
	}

	// Background refresh needs both stored scenarios and a sheet destination.
	if scenarioSvc != nil && cfg.SheetsSpreadsheetID != "" && cfg.SheetsCredentials != "" {
		sheetsWriter, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentials)
		if err != nil {
			return fmt.Errorf("creating sheets writer: %w", err)
		}
		grid, err := analysis.Range(cfg.SweepFrom, cfg.SweepTo, cfg.SweepStep)
		if err != nil {
			return fmt.Errorf("building report grid: %w", err)
		}
		reportWorker := worker.NewReportWorker(scenarioSvc, export.NewService(sheetsWriter), cfg.ReportInterval, grid)
		go reportWorker.Run(ctx)
	}

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, scenario save endpoint is unprotected")
	}

	defaults := api.SweepDefaults{From: cfg.SweepFrom, To: cfg.SweepTo, Step: cfg.SweepStep}
	srv := api.NewServer(cfg.HTTPPort, scenarioSvc, defaults, cfg.AdminAPIKey)

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func printResult(r waterfall.Result) {
	fmt.Printf("Exit value            %s\n", domain.FormatMillions(r.ExitPrice))
	fmt.Printf("Carve-out             %s\n", domain.FormatMillions(r.CarveOutAmount))
	fmt.Printf("Net proceeds          %s\n", domain.FormatMillions(r.NetProceeds))
	fmt.Printf("Fund ownership        %s\n", domain.FormatPercent(r.FundOwnershipFraction))
	fmt.Printf("Liquidation pref      %s\n", domain.FormatMillions(r.LiquidationPreference))
	fmt.Printf("Pro-rata amount       %s\n", domain.FormatMillions(r.ProRataAmount))
	fmt.Printf("Fund gross proceeds   %s  (preference applies: %v)\n",
		domain.FormatMillions(r.FundGrossProceeds), r.LiqPrefApplies)
	fmt.Printf("Management fees       %s\n", domain.FormatMillions(r.ManagementFees))
	fmt.Printf("Return of capital     %s\n", domain.FormatMillions(r.ReturnOfCapital))
	fmt.Printf("LP profit share       %s\n", domain.FormatMillions(r.LPProfitShare))
	fmt.Printf("GP carry              %s\n", domain.FormatMillions(r.GPCarry))
	fmt.Printf("Total LP distribution %s\n", domain.FormatMillions(r.TotalLPDistributions))
	fmt.Printf("Investor total        %s\n", domain.FormatMillions(r.InvestorTotal))
	fmt.Printf("MOIC                  %sx\n", r.MOIC.Round(4))
	if r.IRR != nil {
		fmt.Printf("IRR                   %s\n", domain.FormatPercent(*r.IRR))
	} else {
		fmt.Printf("IRR                   n/a\n")
	}
}

func printSweepTable(results []waterfall.Result) {
	fmt.Printf("%-12s %-12s %-12s %-12s %-8s %-8s\n",
		"Exit", "Carve-out", "Fees", "Investor", "MOIC", "IRR")
	for _, r := range results {
		irr := "n/a"
		if r.IRR != nil {
			irr = domain.FormatPercent(*r.IRR)
		}
		fmt.Printf("%-12s %-12s %-12s %-12s %-8s %-8s\n",
			domain.FormatMillions(r.ExitPrice),
			domain.FormatMillions(r.CarveOutAmount),
			domain.FormatMillions(r.ManagementFees),
			domain.FormatMillions(r.InvestorTotal),
			r.MOIC.Round(4).String()+"x",
			irr)
	}
}
