package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

// MaxSteps matches the single byte the frame header spends on the step index.
const MaxSteps = 256

// ScheduleStep holds a square grid resolution for a fixed number of seconds.
type ScheduleStep struct {
	Resolution      int `json:"resolution"`
	DurationSeconds int `json:"durationSeconds"`
}

func (s ScheduleStep) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

type Schedule []ScheduleStep

var DefaultSchedule = Schedule{
	{Resolution: 4, DurationSeconds: 1},
	{Resolution: 8, DurationSeconds: 7},
	{Resolution: 16, DurationSeconds: 9},
	{Resolution: 32, DurationSeconds: 11},
	{Resolution: 64, DurationSeconds: 13},
	{Resolution: 128, DurationSeconds: 14},
	{Resolution: 256, DurationSeconds: 5},
}

// Total is the whole round budget in seconds.
func (s Schedule) Total() int {
	return s.RemainingFrom(0)
}

// RemainingFrom sums the durations of step i and every step after it.
func (s Schedule) RemainingFrom(i int) int {
	if i < 0 {
		i = 0
	}
	total := 0
	for _, step := range s[min(i, len(s)):] {
		total += step.DurationSeconds
	}
	return total
}

func (s Schedule) IsLast(i int) bool {
	return i >= len(s)-1
}

func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidSchedule)
	}
	if len(s) > MaxSteps {
		return fmt.Errorf("%w: %d steps, at most %d", ErrInvalidSchedule, len(s), MaxSteps)
	}
	for i, step := range s {
		if step.Resolution <= 0 || step.Resolution > 1024 {
			return fmt.Errorf("%w: step %d resolution %d", ErrInvalidSchedule, i, step.Resolution)
		}
		if step.DurationSeconds <= 0 {
			return fmt.Errorf("%w: step %d duration %d", ErrInvalidSchedule, i, step.DurationSeconds)
		}
	}
	return nil
}

func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	copy(out, s)
	return out
}

func (s Schedule) String() string {
	parts := make([]string, len(s))
	for i, step := range s {
		parts[i] = fmt.Sprintf("%d:%d", step.Resolution, step.DurationSeconds)
	}
	return strings.Join(parts, ",")
}

// ParseSchedule reads "res:seconds" pairs separated by commas, e.g. "4:1,8:7".
func ParseSchedule(raw string) (Schedule, error) {
	var s Schedule
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		resRaw, durRaw, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not res:seconds", ErrInvalidSchedule, part)
		}
		res, err := strconv.Atoi(strings.TrimSpace(resRaw))
		if err != nil {
			return nil, fmt.Errorf("%w: resolution %q: %v", ErrInvalidSchedule, resRaw, err)
		}
		dur, err := strconv.Atoi(strings.TrimSpace(durRaw))
		if err != nil {
			return nil, fmt.Errorf("%w: duration %q: %v", ErrInvalidSchedule, durRaw, err)
		}
		s = append(s, ScheduleStep{Resolution: res, DurationSeconds: dur})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
