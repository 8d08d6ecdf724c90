// Package main provides the relad CLI.
package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"
)

const version = "v0.1.0-dev"

func main() {
	os.Exit(realMain(os.Args[1:], &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}))
}

func realMain(args []string, ui cli.Ui) int {
	c := cli.NewCLI("relad", version)
	c.Args = args
	c.Commands = commands(ui)

	status, err := c.Run()
	if err != nil {
		ui.Error(fmt.Sprintf("Error executing CLI: %s", err))
		return 1
	}
	return status
}

func commands(ui cli.Ui) map[string]cli.CommandFactory {
	meta := Meta{Ui: ui}
	return map[string]cli.CommandFactory{
		"eval": func() (cli.Command, error) {
			return &EvalCommand{Meta: meta}, nil
		},
		"hessian": func() (cli.Command, error) {
			return &HessianCommand{Meta: meta}, nil
		},
		"verify": func() (cli.Command, error) {
			return &VerifyCommand{Meta: meta}, nil
		},
		"export": func() (cli.Command, error) {
			return &ExportCommand{Meta: meta}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{Meta: meta}, nil
		},
	}
}
