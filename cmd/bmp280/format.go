package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mklimuk/barometer/register"
)

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// parseByte accepts decimal, 0x hex and 0b binary literals.
func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q: %w", s, err)
	}
	return byte(v), nil
}

func parseAddress(s string) (register.Address, error) {
	b, err := parseByte(s)
	return register.Address(b), err
}

func hexBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " ")
}
