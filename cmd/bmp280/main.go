package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/barometer/config"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := newApp()
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bmp280"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", config.Version, config.Date, config.Commit)
	app.Usage = "BMP280 temperature and pressure sensor cli"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable verbose logging",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"BMP280_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Usage:   "bus adapter: mcp2221, generic, nanopi, raw or sim",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "periph bus name for the generic adapter",
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "i2c bus number for the nanopi and raw adapters",
		},
		&cli.UintFlag{
			Name:  "address",
			Usage: "sensor address, 0x76 or 0x77",
		},
		&cli.StringFlag{
			Name:  "mode",
			Usage: "power mode: forced, normal or sleep",
		},
	}
	app.Before = func(c *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&readCmd,
		&idCmd,
		&calibCmd,
		&resetCmd,
		&regCmd,
		&shellCmd,
		&watchCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	return app
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("address") {
		cfg.Sensor.Address = uint8(c.Uint("address"))
	}
	if c.IsSet("mode") {
		cfg.Sensor.Mode = c.String("mode")
	}
	return cfg, cfg.Validate()
}
