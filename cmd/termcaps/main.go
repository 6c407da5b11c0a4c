package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _
  | |_ ___ _ __ _ __ ___   ___ __ _ _ __  ___
  | __/ _ \ '__| '_ ' _ \ / __/ _' | '_ \/ __|
  | ||  __/ |  | | | | | | (_| (_| | |_) \__ \
   \__\___|_|  |_| |_| |_|\___\__,_| .__/|___/
                                   |_|
  Terminal capability database

  Usage: termcaps <command> [options]
         termcaps --help

  MCP server mode requires piped input.`)
}

func main() {
	args := os.Args
	if len(args) < 2 {
		// No args + interactive terminal → banner; piped → MCP server
		if isTerminal(os.Stdin) {
			printBanner()
			return
		}
		args = append(args, "serve")
	}

	app := newCLIApp(os.Getenv)
	if err := app.Run(args); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		}
		code := 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) && exitErr.ExitCode() != 0 {
			code = exitErr.ExitCode()
		}
		os.Exit(code)
	}
}
