package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jonathan/clip-curator/internal/types"
)

// DefaultCommandTimeout bounds one external analyzer invocation.
const DefaultCommandTimeout = 2 * time.Minute

// maxStderr caps how much stderr is kept in error messages
const maxStderr = 512

// commandOutput is the JSON document an external analyzer prints on stdout.
// Any group may be omitted; "error" signals unreadable media.
type commandOutput struct {
	Error string `json:"error,omitempty"`

	SharpMean      *float64 `json:"sharp_mean,omitempty"`
	SharpMedian    *float64 `json:"sharp_median,omitempty"`
	BrightnessMean *float64 `json:"brightness_mean,omitempty"`
	MotionMean     *float64 `json:"motion_mean,omitempty"`

	MoodBrightness *float64 `json:"mood_brightness,omitempty"`
	MoodContrast   *float64 `json:"mood_contrast,omitempty"`
	MoodTemp       *float64 `json:"mood_temp,omitempty"`
	MoodMotion     *float64 `json:"mood_motion,omitempty"`

	Tags []types.TagScore `json:"tags,omitempty"`
}

// CommandAnalyzer runs an external program as `<Command> <Args...> <path>` and
// decodes the metrics it prints as JSON.
type CommandAnalyzer struct {
	Command string
	Args    []string
	Timeout time.Duration
	// TopTags is how many tag phrases form the tag text (default 8)
	TopTags int
	// Env is added to the inherited environment
	Env []string
}

// NewCommandAnalyzer builds an analyzer from a command line such as
// "python3 video_quality.py".
func NewCommandAnalyzer(commandLine string, timeout time.Duration) (*CommandAnalyzer, error) {
	parts := strings.Fields(commandLine)
	if len(parts) == 0 {
		return nil, errors.New("analyzer command is empty")
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &CommandAnalyzer{Command: parts[0], Args: parts[1:], Timeout: timeout, TopTags: DefaultTopTags}, nil
}

// Analyze runs the command against path.
func (a *CommandAnalyzer) Analyze(ctx context.Context, path string) (*types.Metrics, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, a.Args...), path)
	cmd := exec.CommandContext(ctx, a.Command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if len(a.Env) > 0 {
		cmd.Env = append(os.Environ(), a.Env...)
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Path: path, Message: "analyzer timed out", Cause: ctx.Err()}
		}
		return nil, &Error{Path: path, Message: "analyzer failed: " + truncate(stderr.String(), maxStderr), Cause: err}
	}

	return a.decode(path, stdout.Bytes())
}

func (a *CommandAnalyzer) decode(path string, out []byte) (*types.Metrics, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, &Error{Path: path, Message: "analyzer produced no output", Cause: ErrNoFrames}
	}

	var doc commandOutput
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, &Error{Path: path, Message: "analyzer output is not valid JSON", Cause: err}
	}
	if doc.Error != "" {
		return nil, &Error{Path: path, Message: doc.Error, Cause: ErrNoFrames}
	}

	m := &types.Metrics{}
	if doc.SharpMedian != nil && doc.BrightnessMean != nil && doc.MotionMean != nil {
		q := &types.QualityMetrics{
			SharpMedian:    *doc.SharpMedian,
			BrightnessMean: *doc.BrightnessMean,
			MotionMean:     *doc.MotionMean,
		}
		q.SharpMean = q.SharpMedian
		if doc.SharpMean != nil {
			q.SharpMean = *doc.SharpMean
		}
		m.Quality = q
	}
	if doc.MoodBrightness != nil && doc.MoodContrast != nil && doc.MoodTemp != nil {
		m.Mood = &types.MoodMetrics{
			Brightness: *doc.MoodBrightness,
			Contrast:   *doc.MoodContrast,
			Temp:       *doc.MoodTemp,
			Motion:     doc.MoodMotion,
		}
	}
	if len(doc.Tags) > 0 {
		top := a.TopTags
		if top <= 0 {
			top = DefaultTopTags
		}
		ranked := RankTags(doc.Tags)
		m.TopTags = TopTagText(ranked, top)
		m.TagScores = Truncate(ranked, MaxStoredTagScores)
	}

	if m.Quality == nil && m.Mood == nil && m.TopTags == "" {
		return nil, &Error{Path: path, Message: "analyzer output has no metrics", Cause: ErrNoFrames}
	}
	return m, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
