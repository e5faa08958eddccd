package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/content-guard-mcp/internal/anatomy"
)

// DefaultTimeout bounds a single model invocation.
const DefaultTimeout = 60 * time.Second

// Command runs an external model. The image is written to a temporary PNG
// whose path is appended as the last argument; the process prints JSON on
// stdout.
type Command struct {
	name    string
	args    []string
	timeout time.Duration
	tempDir string
	logger  *logrus.Entry
}

// NewCommand parses a command line and checks that its executable exists.
func NewCommand(cmdline string, timeout time.Duration, tempDir string, logger *logrus.Entry) (*Command, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrDetectorUnavailable)
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDetectorUnavailable, fields[0], err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Command{
		name:    fields[0],
		args:    fields[1:],
		timeout: timeout,
		tempDir: tempDir,
		logger:  logger.WithField("command", fields[0]),
	}, nil
}

// Run sends img to the command and returns its stdout.
func (c *Command) Run(ctx context.Context, img image.Image) ([]byte, error) {
	f, err := os.CreateTemp(c.tempDir, "content-guard-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp image: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string(nil), c.args...), path)
	start := time.Now()
	output, err := exec.CommandContext(ctxWithTimeout, c.name, args...).Output()
	if err != nil {
		if errors.Is(ctxWithTimeout.Err(), context.DeadlineExceeded) {
			c.logger.WithField("timeout", c.timeout).Error("detector timeout")
			return nil, fmt.Errorf("detector timeout after %s", c.timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.logger.WithFields(logrus.Fields{
				"stderr": strings.TrimSpace(string(exitErr.Stderr)),
				"error":  err,
			}).Error("detector failed")
			return nil, fmt.Errorf("detector failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("detector error: %w", err)
	}

	c.logger.WithField("elapsed", time.Since(start)).Trace("detector finished")
	return output, nil
}

// CommandPersonLocator runs a person model as a subprocess.
type CommandPersonLocator struct {
	cmd *Command
}

// NewCommandPersonLocator builds a locator from a command line.
func NewCommandPersonLocator(cmdline string, timeout time.Duration, tempDir string, logger *logrus.Entry) (*CommandPersonLocator, error) {
	if logger != nil {
		logger = logger.WithField("component", "person-locator")
	}
	cmd, err := NewCommand(cmdline, timeout, tempDir, logger)
	if err != nil {
		return nil, err
	}
	return &CommandPersonLocator{cmd: cmd}, nil
}

func (l *CommandPersonLocator) LocatePersons(ctx context.Context, f Frame) ([]Person, error) {
	out, err := l.cmd.Run(ctx, f.Image)
	if err != nil {
		return nil, err
	}
	persons, err := DecodePersons(out)
	if err != nil {
		l.cmd.logger.WithField("output", string(out)).WithError(err).Error("failed to parse person output")
		return nil, err
	}
	bounds := f.Image.Bounds()
	kept := persons[:0]
	for _, p := range persons {
		p.Box = p.Box.Clip(bounds)
		if p.Box.Valid() {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

// CommandRegionDetector runs an anatomical region model as a subprocess.
type CommandRegionDetector struct {
	cmd *Command
}

// NewCommandRegionDetector builds a region detector from a command line.
func NewCommandRegionDetector(cmdline string, timeout time.Duration, tempDir string, logger *logrus.Entry) (*CommandRegionDetector, error) {
	if logger != nil {
		logger = logger.WithField("component", "region-detector")
	}
	cmd, err := NewCommand(cmdline, timeout, tempDir, logger)
	if err != nil {
		return nil, err
	}
	return &CommandRegionDetector{cmd: cmd}, nil
}

func (d *CommandRegionDetector) DetectRegions(ctx context.Context, _ Frame, _ image.Rectangle, crop image.Image) ([]anatomy.Detection, error) {
	out, err := d.cmd.Run(ctx, crop)
	if err != nil {
		return nil, err
	}
	dets, err := DecodeDetections(out)
	if err != nil {
		d.cmd.logger.WithField("output", string(out)).WithError(err).Error("failed to parse region output")
		return nil, err
	}
	return dets, nil
}
