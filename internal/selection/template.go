package selection

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/clip-curator/internal/types"
)

// DefaultTemplate returns the built-in story: hook, action, family, ride, ending.
func DefaultTemplate() []types.StorySection {
	return []types.StorySection{
		{Name: "hook", Motion: types.MotionHigh, Count: 1},
		{Name: "action", Motion: types.MotionMidHigh, Count: 2},
		{Name: "family", Tags: []string{"family", "smile", "group"}, Count: 1},
		{Name: "ride", Tags: []string{"slide", "splash", "ride"}, Count: 1},
		{Name: "ending", Motion: types.MotionLow, Brightness: types.BrightnessHigh, Count: 1},
	}
}

type templateFile struct {
	Sections []types.StorySection `yaml:"sections"`
}

// LoadTemplate reads a YAML story template of the form
//
//	sections:
//	  - name: hook
//	    motion: high
//	    count: 1
func LoadTemplate(path string) ([]types.StorySection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}
	return ParseTemplate(data)
}

// ParseTemplate decodes and validates a YAML story template.
func ParseTemplate(data []byte) ([]types.StorySection, error) {
	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, &Error{Message: "failed to parse template YAML", Cause: err}
	}
	for i := range tf.Sections {
		s := &tf.Sections[i]
		s.Name = strings.TrimSpace(s.Name)
		for j, tag := range s.Tags {
			s.Tags[j] = strings.ToLower(strings.TrimSpace(tag))
		}
	}
	if err := ValidateTemplate(tf.Sections); err != nil {
		return nil, err
	}
	return tf.Sections, nil
}

// ValidateTemplate checks section names are unique and non-empty, counts are
// positive and rules are known.
func ValidateTemplate(sections []types.StorySection) error {
	if len(sections) == 0 {
		return &Error{Message: "template has no sections"}
	}
	seen := make(map[string]struct{}, len(sections))
	for i, s := range sections {
		if s.Name == "" {
			return &Error{Message: fmt.Sprintf("section %d has no name", i)}
		}
		if _, dup := seen[s.Name]; dup {
			return &Error{Section: s.Name, Message: "duplicate section name"}
		}
		seen[s.Name] = struct{}{}

		if s.Count < 1 {
			return &Error{Section: s.Name, Message: fmt.Sprintf("count must be at least 1, got %d", s.Count)}
		}
		switch s.Motion {
		case types.MotionAny, types.MotionHigh, types.MotionMidHigh, types.MotionLow:
		default:
			return &Error{Section: s.Name, Message: fmt.Sprintf("unknown motion rule %q", s.Motion)}
		}
		switch s.Brightness {
		case types.BrightnessAny, types.BrightnessHigh:
		default:
			return &Error{Section: s.Name, Message: fmt.Sprintf("unknown brightness rule %q", s.Brightness)}
		}
		for _, tag := range s.Tags {
			if tag == "" {
				return &Error{Section: s.Name, Message: "empty tag keyword"}
			}
		}
	}
	return nil
}

// TemplateLength is the nominal number of clips in a full assembly.
func TemplateLength(sections []types.StorySection) int {
	n := 0
	for _, s := range sections {
		n += s.Count
	}
	return n
}
