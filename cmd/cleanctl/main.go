package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cleanmanager/cleanmanager/cmd/cleanctl/cli"
	"github.com/cleanmanager/cleanmanager/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg *app.Config
	loadConfig := func() (*app.Config, error) {
		if cfg != nil {
			return cfg, nil
		}
		loaded, err := app.LoadConfig()
		if err != nil {
			return nil, err
		}
		cfg = loaded
		return cfg, nil
	}

	root := cli.NewRootCommand(cli.Deps{
		Service: func(ctx context.Context) (cli.ProfitabilityService, func(), error) {
			c, err := loadConfig()
			if err != nil {
				return nil, nil, err
			}
			logger := app.NewLoggerTo(os.Stderr, c)
			slog.SetDefault(logger)
			services, err := app.NewServices(ctx, c, logger, nil)
			if err != nil {
				return nil, nil, err
			}
			return services.Profitability, services.Close, nil
		},
		Queue: func() (cli.JobQueue, error) {
			c, err := loadConfig()
			if err != nil {
				return nil, err
			}
			return cli.NewJobsCLI(c.RedisAddr)
		},
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cleanctl: %v\n", err)
		os.Exit(1)
	}
}
