package sequence

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"assetlib/internal/config"
	"assetlib/internal/references"
)

// Frame number patterns, tried in order.
var framePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.(\d{4})\.`),
	regexp.MustCompile(`_(\d+)[._]`),
	regexp.MustCompile(`\.(\d{3})\.`),
}

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// Range is an inclusive frame range.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RangePolicy fixes where exported ranges start and how short they may be.
type RangePolicy struct {
	Floor     int
	MinLength int
}

// PolicyFromConfig reads the frame range policy from cfg.
func PolicyFromConfig(cfg *config.Config) RangePolicy {
	return RangePolicy{Floor: cfg.FrameRange.Floor, MinLength: cfg.FrameRange.MinLength}
}

// ExtractFrame returns the frame number embedded in a file name.
func ExtractFrame(name string) (int, bool) {
	name = filepath.Base(name)
	for _, re := range framePatterns {
		if m := re.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	stem, _, _ := strings.Cut(name, ".")
	if m := trailingDigits.FindStringSubmatch(stem); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Detect applies the policy to observed frame numbers. The range always
// starts at the floor and is never shorter than MinLength frames.
func (p RangePolicy) Detect(frames []int) Range {
	end := p.Floor + p.MinLength - 1
	for _, frame := range frames {
		if frame > end {
			end = frame
		}
	}
	return Range{Start: p.Floor, End: end}
}

// DetectFrameRange extracts frames from the files of every frame sequence
// in groups and applies the policy. Tile sets do not contribute.
func DetectFrameRange(groups []*Group, policy RangePolicy) Range {
	var frames []int
	for _, group := range groups {
		if group.Class != references.ClassSequence {
			continue
		}
		for _, file := range group.Files {
			if frame, ok := ExtractFrame(file); ok {
				frames = append(frames, frame)
			}
		}
	}
	return policy.Detect(frames)
}
