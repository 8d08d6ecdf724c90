package main

import (
	"fmt"
	"runtime"
)

// VersionCommand prints the version.
type VersionCommand struct {
	Meta
}

func (c *VersionCommand) Run(_ []string) int {
	c.Ui.Output(fmt.Sprintf("relad %s (%s/%s, %s)", version, runtime.GOOS, runtime.GOARCH, runtime.Version()))
	return 0
}

func (c *VersionCommand) Help() string {
	return "Usage: relad version\n\n  Prints the relad version."
}

func (c *VersionCommand) Synopsis() string {
	return "Show version"
}
