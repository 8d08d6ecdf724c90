package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/born-ml/relad/internal/autodiff"
	"github.com/born-ml/relad/internal/expr"
	"github.com/born-ml/relad/internal/loader"
)

// Meta holds state and flags shared by all commands.
type Meta struct {
	Ui cli.Ui

	logLevel string
	assign   assignments
	logger   hclog.Logger
}

// assignments collects repeated -set name=value flags.
type assignments map[string]float64

func (a *assignments) String() string {
	parts := make([]string, 0, len(*a))
	for k, v := range *a {
		parts = append(parts, k+"="+strconv.FormatFloat(v, 'g', -1, 64))
	}
	return strings.Join(parts, ",")
}

func (a *assignments) Set(s string) error {
	name, val, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("value for %s: %w", name, err)
	}
	if *a == nil {
		*a = make(assignments)
	}
	(*a)[name] = v
	return nil
}

// flagSet returns a FlagSet with the common flags registered.
func (m *Meta) flagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	f.StringVar(&m.logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error")
	f.Var(&m.assign, "set", "override a variable value, name=value (repeatable)")
	return f
}

// setup builds the logger after flags have been parsed.
func (m *Meta) setup() {
	if env := os.Getenv("RELAD_LOG"); env != "" && m.logLevel == "warn" {
		m.logLevel = env
	}
	m.logger = hclog.New(&hclog.LoggerOptions{
		Name:   "relad",
		Level:  hclog.LevelFromString(m.logLevel),
		Output: os.Stderr,
	})
}

func (m *Meta) engine() *autodiff.Engine {
	cfg := autodiff.DefaultConfig()
	cfg.Logger = m.logger
	return autodiff.New(cfg)
}

// load opens the relation file, applies -set overrides and selects the named
// relations, or all of them when names is empty.
func (m *Meta) load(path string, names []string) (*loader.Set, []*expr.Relation, error) {
	set, err := loader.Open(path)
	if err != nil {
		return nil, nil, err
	}
	for name, v := range m.assign {
		if err := set.Assign(name, v); err != nil {
			return nil, nil, err
		}
	}
	m.logger.Debug("loaded relation file", "path", path, "format", set.Format,
		"variables", len(set.Variables), "relations", len(set.Relations))

	if len(names) == 0 {
		return set, set.Relations, nil
	}
	rels := make([]*expr.Relation, 0, len(names))
	for _, name := range names {
		rel, ok := set.Relation(name)
		if !ok {
			return nil, nil, fmt.Errorf("no relation named %q in %s", name, path)
		}
		rels = append(rels, rel)
	}
	return set, rels, nil
}

func (m *Meta) fail(err error) int {
	m.Ui.Error(err.Error())
	return 1
}

// usage reports a flag or argument error; the CLI follows it with the
// command help.
func (m *Meta) usage(err error) int {
	if err != flag.ErrHelp {
		m.Ui.Error(err.Error())
	}
	return cli.RunResultHelp
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 17, 64)
}

func variableNames(rel *expr.Relation) []string {
	names := make([]string, rel.NumVariables())
	for i := range names {
		names[i] = rel.Variable(i + 1).Name()
	}
	return names
}
