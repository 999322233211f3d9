package backend

import (
	"fmt"
	"regexp"
	"strconv"
)

// ProgressParser reads one renderer output line. It returns the completed
// fraction of the current step, a text for the info column and whether the
// line carried progress at all.
type ProgressParser func(line string) (fraction float64, text string, ok bool)

var (
	meltPercent  = regexp.MustCompile(`Current Frame:\s*(\d+),\s*percentage:\s*(\d+)`)
	blenderFrame = regexp.MustCompile(`^Fra:\s*(\d+)`)
)

// MeltProgress parses the lines melt prints with -progress
func MeltProgress(line string) (float64, string, bool) {
	m := meltPercent.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	pct, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, "", false
	}
	return clamp(float64(pct) / 100), "Frame " + m[1], true
}

// BlenderProgress parses "Fra:N" lines for an animation from start to end
func BlenderProgress(start, end int) ProgressParser {
	if end < start {
		end = start
	}
	total := float64(end - start + 1)

	return func(line string) (float64, string, bool) {
		m := blenderFrame.FindStringSubmatch(line)
		if m == nil {
			return 0, "", false
		}
		frame, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, "", false
		}
		// the line appears when a frame begins
		done := float64(frame - start)
		return clamp(done / total), fmt.Sprintf("Frame %d/%d", frame, end), true
	}
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
