package cmd

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Scenario is the yaml shape consumed by both subcommands.
type Scenario struct {
	Load  *LoadSpec  `yaml:"load"`
	Tests []TestSpec `yaml:"tests"`
}

// TargetSpec describes one HTTP endpoint to hit.
type TargetSpec struct {
	URL         string `yaml:"url"`
	Method      string `yaml:"method"`
	ContentType string `yaml:"contentType"`
	Body        string `yaml:"body"`
	BearerToken string `yaml:"bearerToken"`
}

// LoadSpec configures a load run. Durations are yaml strings in Go
// duration syntax, e.g. "30s".
type LoadSpec struct {
	Target            TargetSpec `yaml:"target"`
	VirtualUsers      int        `yaml:"virtualUsers"`
	OperationsPerUser int        `yaml:"operationsPerUser"`
	Duration          string     `yaml:"duration"`
	Concurrency       int        `yaml:"concurrency"`
	DelayMin          string     `yaml:"delayMin"`
	DelayMax          string     `yaml:"delayMax"`
}

// TestSpec configures one suite test case.
type TestSpec struct {
	ID           string     `yaml:"id"`
	Description  string     `yaml:"description"`
	DependsOn    []string   `yaml:"dependsOn"`
	Skip         bool       `yaml:"skip"`
	SkipReason   string     `yaml:"skipReason"`
	Request      TargetSpec `yaml:"request"`
	ExpectStatus int        `yaml:"expectStatus"`
}

func loadScenario(path string) (*Scenario, error) {
	if path == "" {
		return nil, errors.New("a scenario file is required; pass --scenario")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading scenario file")
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parsing scenario file")
	}
	return &s, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	return d, nil
}
