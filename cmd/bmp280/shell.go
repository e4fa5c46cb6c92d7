package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/barometer/chardev"
	"github.com/mklimuk/barometer/cmd/bmp280/console"
	"github.com/mklimuk/barometer/environment"
	"github.com/mklimuk/barometer/register"
)

var errUsage = errors.New("usage")

var shellCommands = []string{"get", "set", "ioctl", "read", "calib", "help", "exit"}

const shellHelp = `get <register> [length]   read registers
set <register> <value>    write one register
ioctl <direction> <cmd>   control channel, cmd = length | register<<8 | value<<16
read                      sample temperature and pressure
calib                     load calibration for this session
exit                      leave the shell`

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive register console",
	Action: func(c *cli.Context) error {
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
		sh, err := console.NewShell(t.id+"> ", shellCommands...)
		if err != nil {
			return console.Fail("could not start shell", err)
		}
		defer sh.Close()
		ctx := commandContext(c)
		for {
			fields, err := sh.Next()
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			if err != nil {
				return console.Fail("input error", err)
			}
			if len(fields) == 0 {
				continue
			}
			if fields[0] == "exit" || fields[0] == "quit" {
				return nil
			}
			out, err := execShellLine(ctx, f, fields)
			if err != nil {
				console.Errorf("%s", err)
				continue
			}
			console.Print(out)
		}
	},
}

// execShellLine runs one shell command against an open device file.
func execShellLine(ctx context.Context, f *chardev.File, fields []string) (string, error) {
	switch fields[0] {
	case "help":
		return shellHelp, nil
	case "get":
		if len(fields) < 2 || len(fields) > 3 {
			return "", fmt.Errorf("%w: get <register> [length]", errUsage)
		}
		reg, err := parseAddress(fields[1])
		if err != nil {
			return "", err
		}
		if len(fields) == 2 {
			buf := []byte{byte(reg)}
			if _, err := f.ReadContext(ctx, buf); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s: %s", console.HexString(byte(reg)), console.HexString(buf[0])), nil
		}
		length, err := parseByte(fields[2])
		if err != nil {
			return "", err
		}
		data, err := f.Control(ctx, register.DirRead, register.Encode(length, reg, 0))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: %s", console.HexString(byte(reg)), hexBytes(data)), nil
	case "set":
		if len(fields) != 3 {
			return "", fmt.Errorf("%w: set <register> <value>", errUsage)
		}
		reg, err := parseByte(fields[1])
		if err != nil {
			return "", err
		}
		value, err := parseByte(fields[2])
		if err != nil {
			return "", err
		}
		if _, err := f.WriteContext(ctx, []byte{reg, value}); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s <- %s", console.HexString(reg), console.HexString(value)), nil
	case "ioctl":
		if len(fields) != 3 {
			return "", fmt.Errorf("%w: ioctl <direction> <command>", errUsage)
		}
		dir, err := strconv.ParseUint(fields[1], 0, 32)
		if err != nil {
			return "", fmt.Errorf("invalid direction %q: %w", fields[1], err)
		}
		arg, err := strconv.ParseUint(fields[2], 0, 32)
		if err != nil {
			return "", fmt.Errorf("invalid command %q: %w", fields[2], err)
		}
		res, err := f.Ioctl(ctx, uint(dir), uint32(arg))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s -> %#x", register.Direction(dir), register.Command(arg), res), nil
	case "calib":
		if err := f.Session().Calibrate(ctx); err != nil {
			return "", err
		}
		return "calibration loaded", nil
	case "read":
		r, err := environment.Read(ctx, f.Session())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s °C %s hPa", formatFloat(r.Temperature, 2), formatFloat(r.Pressure/100, 2)), nil
	}
	return "", fmt.Errorf("%w: unknown command %q, try %s", errUsage, fields[0], strings.Join(shellCommands, ", "))
}
