package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds everything an App needs to compile one batch of fetch
// jobs. Fast mode is an explicit field here rather than ambient state:
// the task assembler consults nothing but what it is handed.
type Config struct {
	JobsPath      string // .hcl job files
	ManifestsPath string // .hcl manifest files, optional
	KeysPath      string // root for gpg key files
	OutPath       string // emitted task JSON; empty means stdout

	Level       string // trust level: "1", "2", or "3"
	TrustDomain string // index route substitution
	Project     string // index route substitution
	Kind        string // task label prefix
	Fast        bool   // skip cache optimizer registration

	BuildDate time.Time

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.JobsPath == "" {
		return nil, errors.New("JobsPath is a required configuration field and cannot be empty")
	}

	switch cfg.Level {
	case "":
		cfg.Level = "1"
	case "1", "2", "3":
		// valid
	default:
		return nil, fmt.Errorf("invalid trust level %q: must be \"1\", \"2\", or \"3\"", cfg.Level)
	}

	if cfg.Kind == "" {
		cfg.Kind = "fetch"
	}
	if cfg.KeysPath == "" {
		cfg.KeysPath = "."
	}
	if cfg.BuildDate.IsZero() {
		cfg.BuildDate = time.Now().UTC()
	}

	return &cfg, nil
}
