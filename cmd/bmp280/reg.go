package main

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/barometer/cmd/bmp280/console"
	"github.com/mklimuk/barometer/register"
)

var regCmd = cli.Command{
	Name:  "reg",
	Usage: "raw register access",
	Subcommands: cli.Commands{
		&regGetCmd,
		&regSetCmd,
		&regIoctlCmd,
	},
}

var regGetCmd = cli.Command{
	Name:      "get",
	Usage:     "read registers",
	ArgsUsage: "<register> [length]",
	Action: func(c *cli.Context) error {
		return runShellCommand(c, append([]string{"get"}, c.Args().Slice()...))
	},
}

var regSetCmd = cli.Command{
	Name:      "set",
	Usage:     "write one register",
	ArgsUsage: "<register> <value>",
	Action: func(c *cli.Context) error {
		return runShellCommand(c, append([]string{"set"}, c.Args().Slice()...))
	},
}

var regIoctlCmd = cli.Command{
	Name:      "ioctl",
	Usage:     "send a packed command on the control channel",
	ArgsUsage: "<direction> <command>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "length", Aliases: []string{"l"}, Usage: "build the command from --length, --register and --value"},
		&cli.StringFlag{Name: "register", Aliases: []string{"r"}},
		&cli.StringFlag{Name: "value"},
	},
	Action: func(c *cli.Context) error {
		args := c.Args().Slice()
		if c.IsSet("register") {
			reg, err := parseAddress(c.String("register"))
			if err != nil {
				return console.Fail("invalid register", err)
			}
			var value byte
			if c.IsSet("value") {
				if value, err = parseByte(c.String("value")); err != nil {
					return console.Fail("invalid value", err)
				}
			}
			dir := "0"
			if len(args) > 0 {
				dir = args[0]
			}
			cmd := register.EncodeInts(c.Int("length"), int(reg), int(value))
			args = []string{dir, strconv.FormatUint(uint64(cmd), 10)}
		}
		return runShellCommand(c, append([]string{"ioctl"}, args...))
	},
}

func runShellCommand(c *cli.Context, fields []string) error {
	t, err := openTarget(c, nil)
	if err != nil {
		return err
	}
	defer t.Close()
	f, err := t.registry.Open(t.id)
	if err != nil {
		return console.Fail("could not open device", err)
	}
	defer f.Close()
	out, err := execShellLine(commandContext(c), f, fields)
	if err != nil {
		return console.Fail(fields[0], err)
	}
	console.Print(out)
	return nil
}
