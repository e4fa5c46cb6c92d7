package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/barometer/adapter"
	"github.com/mklimuk/barometer/cmd/bmp280/console"
)

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "list USB HID devices",
	Subcommands: cli.Commands{
		&usbLsCmd,
		&usbDetectCmd,
	},
}

var usbLsCmd = cli.Command{
	Name: "ls",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(0, 0)
		w := tabwriter.NewWriter(console.Writer(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")
		for _, dev := range devices {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		return w.Flush()
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "list connected MCP2221 bridges with their index",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(console.Writer(), 8, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "INDEX\tVENDOR\tPRODUCT\tSERIAL\tPATH\n")
		for i, dev := range adapter.Devices() {
			_, _ = fmt.Fprintf(w, "%d\t%#x\t%#x\t%s\t%s\n", i, dev.VendorID, dev.ProductID, dev.Serial, dev.Path)
		}
		return w.Flush()
	},
}

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 bridge maintenance",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "index", Value: -1, Usage: "bridge index from 'usb detect'"},
	},
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
		status, err := a.Status(commandContext(c))
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		return printYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and free the bus",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
		status, err := a.ReleaseBus(commandContext(c))
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		return printYAML(status)
	},
}

func printYAML(v interface{}) error {
	enc := yaml.NewEncoder(console.Writer())
	defer enc.Close()
	if err := enc.Encode(v); err != nil {
		return console.Fail("encoding error", err)
	}
	return nil
}
