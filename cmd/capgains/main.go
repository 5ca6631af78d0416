package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/robinvdvleuten/capgains/cli"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	app struct {
		Version kong.VersionFlag `help:"Show version information"`
		cli.Commands
	}
)

func main() {
	// Flags fall back to the environment, which may come from a .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "capgains: failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx := kong.Parse(&app,
		kong.Vars{
			"version": buildVersion(),
		},
		kong.Name("capgains"),
		kong.Description("Realized capital gains from exchange exports, matched first-in-first-out."),
		kong.UsageOnError(),
		kong.Bind(&app.Globals),
	)

	result := cli.ResultOf(ctx.Run())
	if result.Err != nil {
		ctx.FatalIfErrorf(result.Err)
	}
	os.Exit(result.ExitCode)
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
