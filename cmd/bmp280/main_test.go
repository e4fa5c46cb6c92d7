package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/barometer/adapter"
	"github.com/mklimuk/barometer/chardev"
	"github.com/mklimuk/barometer/cmd/bmp280/console"
	"github.com/mklimuk/barometer/environment"
)

func TestMain(m *testing.M) {
	// keep urfave/cli from exiting the test binary on command errors
	cli.OsExiter = func(int) {}
	cli.ErrWriter = io.Discard
	os.Exit(m.Run())
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	console.SetOutput(&out, &bytes.Buffer{})
	return &out
}

func TestRun_ReadJSON(t *testing.T) {
	out := captureOutput(t)
	code := run([]string{"bmp280", "--adapter", "sim", "read", "--json"})
	require.Equal(t, 0, code)

	var r environment.Reading
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.InDelta(t, 25.08, r.Temperature, 0.01)
	assert.InDelta(t, 100653.25, r.Pressure, 0.01)
}

func TestRun_ReadBurst(t *testing.T) {
	out := captureOutput(t)
	code := run([]string{"bmp280", "--adapter", "sim", "read", "--burst"})
	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), "25.08")
	assert.Contains(t, out.String(), "1006.53")
}

func TestRun_Calib(t *testing.T) {
	out := captureOutput(t)
	code := run([]string{"bmp280", "--adapter", "sim", "calib"})
	require.Equal(t, 0, code)

	var calib environment.CalibrationData
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &calib))
	assert.Equal(t, uint16(27504), calib.T1)
	assert.Equal(t, int16(-14600), calib.P8)
}

func TestRun_ID(t *testing.T) {
	out := captureOutput(t)
	code := run([]string{"bmp280", "--adapter", "sim", "--address", "0x77", "id"})
	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), "sim:0x77")
	assert.Contains(t, out.String(), "0x58")
}

func TestRun_InvalidConfig(t *testing.T) {
	captureOutput(t)
	assert.Equal(t, 1, run([]string{"bmp280", "--adapter", "spi", "id"}))
	assert.Equal(t, 1, run([]string{"bmp280", "--adapter", "sim", "--mode", "turbo", "id"}))
}

func TestRun_RegGet(t *testing.T) {
	out := captureOutput(t)
	code := run([]string{"bmp280", "--adapter", "sim", "reg", "get", "0x88", "2"})
	require.Equal(t, 0, code)
	assert.Equal(t, "0x88: 70 6b\n", out.String())
}

func openShellFile(t *testing.T) (*adapter.Simulator, *chardev.File) {
	t.Helper()
	sim := adapter.NewSimulator()
	r := chardev.NewRegistry()
	id, err := r.Attach("sim", environment.NewBMP280(sim, environment.WithAutoCalibrate(true)))
	require.NoError(t, err)
	f, err := r.Open(id)
	require.NoError(t, err)
	return sim, f
}

func TestExecShellLine(t *testing.T) {
	sim, f := openShellFile(t)
	ctx := context.Background()

	tests := []struct {
		line     []string
		expected string
	}{
		{[]string{"get", "0xD0"}, "0xd0: 0x58"},
		{[]string{"get", "0x88", "4"}, "0x88: 70 6b 43 67"},
		{[]string{"set", "0xF5", "0x20"}, "0xf5 <- 0x20"},
		{[]string{"get", "245"}, "0xf5: 0x20"},
		{[]string{"ioctl", "0", "0xD001"}, "read len=1 reg=0xd0 val=0x0 -> 0x58"},
		{[]string{"ioctl", "7", "0xD001"}, "unknown(7) len=1 reg=0xd0 val=0x0 -> 0x0"},
		{[]string{"read"}, "25.08 °C 1006.53 hPa"},
	}
	for _, test := range tests {
		out, err := execShellLine(ctx, f, test.line)
		require.NoError(t, err, test.line)
		assert.Equal(t, test.expected, out, test.line)
	}
	assert.Equal(t, byte(0x20), sim.Register(0xF5))
}

func TestExecShellLine_Errors(t *testing.T) {
	_, f := openShellFile(t)
	ctx := context.Background()
	for _, line := range [][]string{
		{"get"},
		{"set", "0xF5"},
		{"ioctl", "0"},
		{"frobnicate"},
	} {
		_, err := execShellLine(ctx, f, line)
		assert.ErrorIs(t, err, errUsage, line)
	}
	_, err := execShellLine(ctx, f, []string{"get", "0x100"})
	assert.Error(t, err)
}
