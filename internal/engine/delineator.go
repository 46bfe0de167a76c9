package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	apperrors "go-field-delineator/internal/errors"
	"go-field-delineator/internal/logger"

	"github.com/sirupsen/logrus"
)

// Delineator is the opaque boundary-detection engine: handed a resolved
// configuration it either writes a vector dataset at the declared output
// path or reports a fault. There is no progress channel and no partial
// result.
type Delineator interface {
	// Available reports whether the engine integration is usable at all.
	// A non-nil error is a startup-class condition, not a per-request one.
	Available() error

	// Run executes a single delineation synchronously.
	Run(ctx context.Context, cfg *Config) error
}

// CommandDelineator invokes the engine as an external process with the
// configuration serialized to JSON inside the workspace scratch directory.
type CommandDelineator struct {
	binary   string
	resolved string
	probeErr error
}

// NewCommandDelineator resolves the engine binary once at construction.
// The resolution result is fixed for the life of the process.
func NewCommandDelineator(binary string) *CommandDelineator {
	d := &CommandDelineator{binary: binary}
	d.resolved, d.probeErr = exec.LookPath(binary)
	return d
}

// Available returns the result of the startup probe.
func (d *CommandDelineator) Available() error {
	if d.probeErr != nil {
		return fmt.Errorf("engine binary %q not loadable: %w", d.binary, d.probeErr)
	}
	return nil
}

// Run writes the config next to the engine's scratch files and executes
// `<binary> --config <path>`. Stderr is captured so a fault carries its
// cause back across the process boundary.
func (d *CommandDelineator) Run(ctx context.Context, cfg *Config) error {
	if err := d.Available(); err != nil {
		return err
	}

	configPath := filepath.Join(cfg.ExecutionArgs.TempFolder, "config.json")
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal engine config: %w", err)
	}
	if err := os.WriteFile(configPath, raw, 0o644); err != nil {
		return fmt.Errorf("write engine config: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.resolved, "--config", configPath)
	cmd.Dir = cfg.ExecutionArgs.TempFolder

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.WithFields(logrus.Fields{
		"binary": d.resolved,
		"config": configPath,
	}).Info("Invoking delineation engine")

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}
	return nil
}

// lastLine returns the final non-empty stderr line, usually the actual
// fault message.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// Invoke performs exactly one inference attempt and classifies the outcome:
// engine not loadable, engine fault, or a clean return without the declared
// artifact, which is its own failure class. No retries happen at this layer.
func Invoke(ctx context.Context, d Delineator, cfg *Config) (string, error) {
	if err := d.Available(); err != nil {
		return "", apperrors.NewEngineUnavailableError("delineation engine is not available", err)
	}

	if err := d.Run(ctx, cfg); err != nil {
		return "", apperrors.NewEngineRuntimeError("delineation engine failed", err)
	}

	output := cfg.ExecutionArgs.OutputPath
	if _, err := os.Stat(output); err != nil {
		return "", apperrors.NewOutputMissingError("engine completed without producing its output dataset", err)
	}
	return output, nil
}
