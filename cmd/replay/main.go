package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/okian/rinkcast/internal/replay"
	"github.com/okian/rinkcast/pkg/logger"
)

// CLI is the replay command line.
type CLI struct {
	URL        string        `help:"Base URL of the service." default:"http://localhost:9080" env:"RINKCAST_URL"`
	Rosters    int           `help:"Number of rosters to generate and submit." default:"500" short:"n"`
	MaxPlayers int           `help:"Upper bound on players per roster." default:"20"`
	Seed       uint64        `help:"Generator seed." default:"1"`
	Workers    int           `help:"Concurrent submitters." default:"8" short:"w"`
	Timeout    time.Duration `help:"Per-request timeout." default:"10s"`
	Deadline   time.Duration `help:"Overall time limit." default:"10m"`
	Output     string        `help:"Save generated rosters to this JSON file." type:"path"`
	LogFormat  string        `help:"Log format." enum:"text,json" default:"text"`
	Verbose    bool          `help:"Enable debug logging." short:"v"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("replay"),
		kong.Description("Replay generated rosters against a running rinkcast service and verify the results."),
	)
	kctx.FatalIfErrorf(cli.Run())
}

// Run executes the replay.
func (cli *CLI) Run() error {
	if err := logger.Init(logger.WithFormat(cli.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		return err
	}
	if cli.Verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cli.Deadline)
	defer cancel()

	_, err := replay.Run(ctx, &replay.Config{
		BaseURL:    cli.URL,
		Rosters:    cli.Rosters,
		MaxPlayers: cli.MaxPlayers,
		Seed:       cli.Seed,
		Workers:    cli.Workers,
		Timeout:    cli.Timeout,
		OutputFile: cli.Output,
	}, os.Stdout)
	return err
}
