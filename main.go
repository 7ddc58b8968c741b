package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	app "github.com/rocketscienceinc/multisig-tictactoe/internal"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/config"
)

// main - is the entry point of the application. It parses flags, loads the configuration and plays a game.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	cliApp := &cli.App{
		Name:  "multisig-tictactoe",
		Usage: "play tic-tac-toe against one opponent through a shared 1-of-2 multisig account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.yml", Usage: "path to the config file"},
			&cli.StringFlag{Name: "playing-as", Usage: "X or O"},
			&cli.StringFlag{Name: "private-key", Usage: "suiprivkey... or base64 flagged private key", EnvVars: []string{"PRIVATE_KEY"}},
			&cli.StringFlag{Name: "keystore", Usage: "path to a sui.keystore file"},
			&cli.StringFlag{Name: "opponent-public-key", Usage: "base64 flagged public key of the opponent"},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

func run(c *cli.Context) error {
	conf := initConfig(c)
	logger := initLogger(conf)

	return app.RunApp(logger, conf)
}

// initialize config, flags win over the file and the environment.
func initConfig(c *cli.Context) *config.Config {
	conf := config.MustLoad(c.String("config"))

	if c.IsSet("playing-as") {
		conf.Player.PlayingAs = c.String("playing-as")
	}
	if c.IsSet("private-key") {
		conf.Player.PrivateKey = c.String("private-key")
	}
	if c.IsSet("keystore") {
		conf.Player.KeystorePath = c.String("keystore")
	}
	if c.IsSet("opponent-public-key") {
		conf.Opponent.PublicKey = c.String("opponent-public-key")
	}

	return conf
}

// initialize logger. Stdout belongs to the board and the prompts.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
