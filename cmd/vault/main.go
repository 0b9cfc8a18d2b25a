package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ark-network/vault/internal/config"
	"github.com/ark-network/vault/internal/core/application"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var (
	version = "dev"

	svc *application.Service
	cfg *config.Config
)

var (
	datadirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "data directory, overrides VAULT_DATADIR",
	}
	askPassFlag = &cli.BoolFlag{
		Name:  "ask-pass",
		Usage: "prompt for the daemon password instead of reading VAULT_DAEMON_PASS",
	}
)

func main() {
	app := cli.NewApp()

	app.Version = version
	app.Name = "vault CLI"
	app.Usage = "Command line interface for vault stakeholders and managers"
	app.Flags = []cli.Flag{datadirFlag, askPassFlag}
	app.Commands = append(
		app.Commands,
		&vaultsCommand,
		&balanceCommand,
		&heightCommand,
		&txsCommand,
		&ackCommand,
		&delegateCommand,
		&spendCommand,
		&activityCommand,
	)

	app.Before = func(ctx *cli.Context) error {
		if datadir := cleanAndExpandPath(ctx.String(datadirFlag.Name)); len(datadir) > 0 {
			viper.Set(config.Datadir, datadir)
		}

		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return err
		}
		log.SetLevel(log.Level(cfg.LogLevel))

		if ctx.Bool(askPassFlag.Name) {
			fmt.Fprint(os.Stderr, "daemon password: ")
			pass, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}
			cfg.DaemonPass = string(pass)
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		svc, err = cfg.AppService()
		return err
	}

	app.After = func(ctx *cli.Context) error {
		if svc != nil {
			svc.Close()
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}
