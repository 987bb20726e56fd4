package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/streamwave/internal/logging"
)

type nopSink struct{ io.Writer }

func (nopSink) Close() error { return nil }

// processSink feeds audio bytes to an external decoder on its stdin.
type processSink struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// startSink starts argv as the audio output. An empty argv discards audio.
func startSink(ctx context.Context, argv []string, logger *log.Logger) (io.WriteCloser, error) {
	if len(argv) == 0 {
		logger.Info("no sink command configured, audio is discarded")
		return nopSink{io.Discard}, nil
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // user-configured command
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	sinkLog := logger.WithPrefix("sink")
	cmd.Stdout = logging.Writer(sinkLog, log.DebugLevel)
	cmd.Stderr = logging.Writer(sinkLog, log.DebugLevel)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start sink %q: %w", argv[0], err)
	}
	logger.Info("audio sink started", "command", argv[0], "pid", cmd.Process.Pid)
	return &processSink{cmd: cmd, stdin: stdin}, nil
}

func (p *processSink) Write(b []byte) (int, error) {
	return p.stdin.Write(b)
}

func (p *processSink) Close() error {
	err := p.stdin.Close()
	var exitErr *exec.ExitError
	if werr := p.cmd.Wait(); werr != nil && !errors.As(werr, &exitErr) {
		err = errors.Join(err, werr)
	}
	return err
}
