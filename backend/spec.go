package backend

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ncobase/rendercore/jobs"
)

var ErrIncompleteJob = errors.New("incomplete render job")

// Binaries locates the renderer executables
type Binaries struct {
	Melt    string `mapstructure:"melt" yaml:"melt"`
	Blender string `mapstructure:"blender" yaml:"blender"`
	Gmic    string `mapstructure:"gmic" yaml:"gmic"`
}

// DefaultBinaries looks the renderers up on PATH
func DefaultBinaries() Binaries {
	return Binaries{Melt: "melt", Blender: "blender", Gmic: "gmic"}
}

// JobSpec describes one render as written in a manifest
type JobSpec struct {
	ID     string    `yaml:"id"`
	Kind   jobs.Kind `yaml:"kind"`
	Input  string    `yaml:"input"`
	Output string    `yaml:"output"`
	// Script is the G'MIC command applied to every frame
	Script string `yaml:"script,omitempty"`
	// Start and End bound the frame range, inclusive
	Start int      `yaml:"start,omitempty"`
	End   int      `yaml:"end,omitempty"`
	Args  []string `yaml:"args,omitempty"`
	Dir   string   `yaml:"dir,omitempty"`
}

// Validate checks the fields the kind needs
func (s JobSpec) Validate() error {
	if s.Input == "" || s.Output == "" {
		return fmt.Errorf("%w: input and output are required", ErrIncompleteJob)
	}
	switch s.Kind {
	case jobs.KindGmic:
		if s.Script == "" {
			return fmt.Errorf("%w: gmic job needs a script", ErrIncompleteJob)
		}
		if s.End < s.Start {
			return fmt.Errorf("%w: frame range %d..%d is empty", ErrIncompleteJob, s.Start, s.End)
		}
	case jobs.KindBlender:
		if s.End < s.Start {
			return fmt.Errorf("%w: frame range %d..%d is empty", ErrIncompleteJob, s.Start, s.End)
		}
	case jobs.KindMLTXML:
	default:
		return fmt.Errorf("%w: kind %s has no renderer", ErrIncompleteJob, s.Kind)
	}
	return nil
}

// Plan builds the commands that render s
func (b Binaries) Plan(s JobSpec) (Plan, error) {
	if err := s.Validate(); err != nil {
		return Plan{}, err
	}

	switch s.Kind {
	case jobs.KindMLTXML:
		args := append([]string{s.Input, "-progress", "-consumer", "avformat:" + s.Output}, s.Args...)
		return Plan{
			Steps: []Command{{Path: b.Melt, Args: args, Dir: s.Dir}},
			Parse: MeltProgress,
		}, nil

	case jobs.KindBlender:
		args := []string{"-b", s.Input, "-o", s.Output, "-s", fmt.Sprint(s.Start), "-e", fmt.Sprint(s.End)}
		args = append(args, s.Args...)
		args = append(args, "-a")
		return Plan{
			Steps: []Command{{Path: b.Blender, Args: args, Dir: s.Dir}},
			Parse: BlenderProgress(s.Start, s.End),
		}, nil

	default: // jobs.KindGmic, one gmic run per frame
		steps := make([]Command, 0, s.End-s.Start+1)
		for f := s.Start; f <= s.End; f++ {
			args := []string{framePath(s.Input, f), s.Script}
			args = append(args, s.Args...)
			args = append(args, "-o", framePath(s.Output, f))
			steps = append(steps, Command{Path: b.Gmic, Args: args, Dir: s.Dir})
		}
		return Plan{Steps: steps}, nil
	}
}

// framePath expands a printf style frame pattern such as "frame_%04d.png".
// A pattern without a verb gets the number inserted before the extension.
func framePath(pattern string, frame int) string {
	if strings.Contains(pattern, "%") {
		return fmt.Sprintf(pattern, frame)
	}
	ext := filepath.Ext(pattern)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(pattern, ext), frame, ext)
}
