package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit returns an error urfave/cli prints before exiting with code.
func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// Fail is Exit(1) with the error highlighted.
func Fail(what string, err error) cli.ExitCoder {
	return Exit(1, "%s: %s", what, Red(err))
}
