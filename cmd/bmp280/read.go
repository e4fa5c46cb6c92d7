package main

import (
	"encoding/json"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/barometer/cmd/bmp280/console"
	"github.com/mklimuk/barometer/environment"
)

var readCmd = cli.Command{
	Name:  "read",
	Usage: "read temperature and pressure",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "print the reading as JSON"},
		&cli.BoolFlag{Name: "burst", Usage: "read both values of one conversion in a single transfer"},
	},
	Action: func(c *cli.Context) error {
		t, err := openTarget(c, nil)
		if err != nil {
			return err
		}
		defer t.Close()
		ctx := commandContext(c)
		s := t.dev.NewSession()
		if err := s.Calibrate(ctx); err != nil {
			return console.Fail("calibration error", err)
		}
		var r environment.Reading
		if c.Bool("burst") {
			var env physic.Env
			if err := s.Sense(ctx, &env); err != nil {
				return console.Fail("measurement error", err)
			}
			r.Temperature = env.Temperature.Celsius()
			r.Pressure = float64(env.Pressure) / float64(physic.Pascal)
		} else {
			r, err = environment.Read(ctx, s)
			if err != nil {
				return console.Fail("measurement error", err)
			}
		}
		if c.Bool("json") {
			enc := json.NewEncoder(console.Writer())
			if err := enc.Encode(r); err != nil {
				return console.Fail("encoding error", err)
			}
			return nil
		}
		console.PInfof(console.PictoThermometer, " %s °C", console.White(formatFloat(r.Temperature, 2)))
		console.PInfof(console.PictoBarometer, "%s hPa", console.White(formatFloat(r.Pressure/100, 2)))
		return nil
	},
}

var idCmd = cli.Command{
	Name:  "id",
	Usage: "read and verify the chip id",
	Action: func(c *cli.Context) error {
		t, err := openTarget(c, nil)
		if err != nil {
			return err
		}
		defer t.Close()
		ctx := commandContext(c)
		id, err := t.dev.ChipID(ctx)
		if err != nil {
			return console.Fail("could not read chip id", err)
		}
		if err := t.dev.Check(ctx); err != nil {
			console.Warnf("%s", err)
		}
		console.PInfof(console.PictoChip, "%s chip id %s", t.id, console.Hex(id))
		return nil
	},
}

var calibCmd = cli.Command{
	Name:  "calib",
	Usage: "dump the calibration coefficients as YAML",
	Action: func(c *cli.Context) error {
		t, err := openTarget(c, nil)
		if err != nil {
			return err
		}
		defer t.Close()
		s := t.dev.NewSession()
		if err := s.Calibrate(commandContext(c)); err != nil {
			return console.Fail("calibration error", err)
		}
		calib, _ := s.Calibration()
		enc := yaml.NewEncoder(console.Writer())
		defer enc.Close()
		if err := enc.Encode(calib); err != nil {
			return console.Fail("encoding error", err)
		}
		return nil
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "soft reset the sensor",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("reset the sensor?")
			if err != nil {
				return console.Fail("prompt error", err)
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		t, err := openTarget(c, nil)
		if err != nil {
			return err
		}
		defer t.Close()
		if err := t.dev.Reset(commandContext(c)); err != nil {
			return console.Fail("reset failed", err)
		}
		console.Print(console.Green("sensor reset"))
		return nil
	},
}
