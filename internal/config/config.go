// Package config loads optional on-disk tuning for the self-healing core's
// three independently-configurable subsystems, so an operator can adjust
// retry counts, attempt budgets, or test output locations without a
// recompile.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bazelment/selfheal/internal/fixagent"
	"github.com/bazelment/selfheal/internal/regtest"
	"github.com/bazelment/selfheal/internal/toolexec"
)

// FileName is the config file looked for in a repository's working
// directory.
const FileName = ".selfheal.yaml"

// ToolExecutorSection mirrors the tunable fields of toolexec.Config.
type ToolExecutorSection struct {
	MaxRetries       int   `yaml:"max_retries"`
	BaseRetryDelayMS int64 `yaml:"base_retry_delay_ms"`
	MaxRetryDelayMS  int64 `yaml:"max_retry_delay_ms"`
	AutoFixEnabled   bool  `yaml:"auto_fix_enabled"`
	ExecutionTimeoutS int64 `yaml:"execution_timeout_seconds"`
}

// FixAgentSection mirrors the tunable fields of fixagent.Config.
type FixAgentSection struct {
	MaxAttempts         uint32 `yaml:"max_attempts"`
	GenerateTests       bool   `yaml:"generate_tests"`
	AttemptTimeoutS     int64  `yaml:"attempt_timeout_seconds"`
	AllowMultiFileFixes bool   `yaml:"allow_multi_file_fixes"`
}

// RegressionTestSection mirrors the tunable fields of regtest.Config.
type RegressionTestSection struct {
	TestDirectory           string `yaml:"test_directory"`
	IncludeErrorContext     bool   `yaml:"include_error_context"`
	PreferCompileTimeChecks bool   `yaml:"prefer_compile_time_checks"`
	TestNamePrefix          string `yaml:"test_name_prefix"`
}

// Config is the top-level shape of .selfheal.yaml.
type Config struct {
	ToolExecutor   ToolExecutorSection   `yaml:"tool_executor"`
	FixAgent       FixAgentSection       `yaml:"fix_agent"`
	RegressionTest RegressionTestSection `yaml:"regression_test"`
}

// Load reads .selfheal.yaml from repoPath. A missing file is not an error:
// the defaults below (each package's DefaultConfig) are returned instead, matching
// wt.LoadRepoConfig's "no file means defaults" contract.
func Load(repoPath string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, FileName))
	if os.IsNotExist(err) {
		return defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return cfg, nil
}

func defaults() *Config {
	te := toolexec.DefaultConfig()
	fa := fixagent.DefaultConfig()
	rt := regtest.DefaultConfig()

	return &Config{
		ToolExecutor: ToolExecutorSection{
			MaxRetries:        te.MaxRetries,
			BaseRetryDelayMS:  te.BaseRetryDelay.Milliseconds(),
			MaxRetryDelayMS:   te.MaxRetryDelay.Milliseconds(),
			AutoFixEnabled:    te.AutoFixEnabled,
			ExecutionTimeoutS: int64(te.ExecutionTimeout / time.Second),
		},
		FixAgent: FixAgentSection{
			MaxAttempts:         fa.MaxAttempts,
			GenerateTests:       fa.GenerateTests,
			AttemptTimeoutS:     int64(fa.AttemptTimeout / time.Second),
			AllowMultiFileFixes: fa.AllowMultiFileFixes,
		},
		RegressionTest: RegressionTestSection{
			TestDirectory:           rt.TestDirectory,
			IncludeErrorContext:     rt.IncludeErrorContext,
			PreferCompileTimeChecks: rt.PreferCompileTimeChecks,
			TestNamePrefix:          rt.TestNamePrefix,
		},
	}
}

// ToolExecutorConfig builds a toolexec.Config from the loaded section.
func (c *Config) ToolExecutorConfig() toolexec.Config {
	cfg := toolexec.DefaultConfig()
	cfg.MaxRetries = c.ToolExecutor.MaxRetries
	cfg.BaseRetryDelay = time.Duration(c.ToolExecutor.BaseRetryDelayMS) * time.Millisecond
	cfg.MaxRetryDelay = time.Duration(c.ToolExecutor.MaxRetryDelayMS) * time.Millisecond
	cfg.AutoFixEnabled = c.ToolExecutor.AutoFixEnabled
	cfg.ExecutionTimeout = time.Duration(c.ToolExecutor.ExecutionTimeoutS) * time.Second
	return cfg
}

// FixAgentConfig builds a fixagent.Config from the loaded section.
func (c *Config) FixAgentConfig() fixagent.Config {
	cfg := fixagent.DefaultConfig()
	cfg.MaxAttempts = c.FixAgent.MaxAttempts
	cfg.GenerateTests = c.FixAgent.GenerateTests
	cfg.AttemptTimeout = time.Duration(c.FixAgent.AttemptTimeoutS) * time.Second
	cfg.AllowMultiFileFixes = c.FixAgent.AllowMultiFileFixes
	cfg.RegressionTestConfig = c.RegressionTestConfig()
	return cfg
}

// RegressionTestConfig builds a regtest.Config from the loaded section.
func (c *Config) RegressionTestConfig() regtest.Config {
	return regtest.Config{
		TestDirectory:           c.RegressionTest.TestDirectory,
		IncludeErrorContext:     c.RegressionTest.IncludeErrorContext,
		PreferCompileTimeChecks: c.RegressionTest.PreferCompileTimeChecks,
		TestNamePrefix:          c.RegressionTest.TestNamePrefix,
	}
}
