package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"stockdesk/internal/gesture"
	"stockdesk/internal/workspace"
)

// Tuning holds the knobs of the interaction core and the background jobs.
type Tuning struct {
	Gesture GestureTuning `toml:"gesture"`
	Batch   BatchTuning   `toml:"batch"`
	Cache   CacheTuning   `toml:"cache"`
	Jobs    JobsTuning    `toml:"jobs"`
	Display DisplayTuning `toml:"display"`
}

type GestureTuning struct {
	DragThreshold float64  `toml:"drag_threshold"`
	InnerMargin   float64  `toml:"inner_margin"`
	FrameInterval duration `toml:"frame_interval"`
}

type BatchTuning struct {
	// 0 issues every request at once
	Concurrency int `toml:"concurrency"`
}

type CacheTuning struct {
	ItemsTTL duration `toml:"items_ttl"`
	StatsTTL duration `toml:"stats_ttl"`
}

type JobsTuning struct {
	StatsRefreshInterval duration `toml:"stats_refresh_interval"`
	StatsConcurrency     int      `toml:"stats_concurrency"`
}

type DisplayTuning struct {
	VisibleAttributes []string `toml:"visible_attributes"`
}

// duration decodes TOML strings such as "16ms" or "5m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func DefaultTuning() Tuning {
	return Tuning{
		Gesture: GestureTuning{DragThreshold: 5, InnerMargin: 10, FrameInterval: duration{16 * time.Millisecond}},
		Cache:   CacheTuning{ItemsTTL: duration{5 * time.Minute}, StatsTTL: duration{15 * time.Minute}},
		Jobs:    JobsTuning{StatsRefreshInterval: duration{10 * time.Minute}, StatsConcurrency: 5},
	}
}

// LoadTuning loads tuning from a TOML file. Keys absent from the file keep
// their defaults.
func LoadTuning(filename string) (*Tuning, error) {
	t := DefaultTuning()
	if _, err := toml.DecodeFile(filename, &t); err != nil {
		return nil, fmt.Errorf("failed to load tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t Tuning) Validate() error {
	if t.Gesture.DragThreshold < 0 || t.Gesture.InnerMargin < 0 {
		return fmt.Errorf("gesture thresholds must not be negative")
	}
	if t.Batch.Concurrency < 0 {
		return fmt.Errorf("batch.concurrency must not be negative")
	}
	if t.Jobs.StatsRefreshInterval.Duration < time.Second {
		return fmt.Errorf("jobs.stats_refresh_interval must be at least 1s")
	}
	return nil
}

func (t Tuning) FrameInterval() time.Duration        { return t.Gesture.FrameInterval.Duration }
func (t Tuning) ItemsTTL() time.Duration             { return t.Cache.ItemsTTL.Duration }
func (t Tuning) StatsTTL() time.Duration             { return t.Cache.StatsTTL.Duration }
func (t Tuning) StatsRefreshInterval() time.Duration { return t.Jobs.StatsRefreshInterval.Duration }

// WorkspaceConfig turns the gesture and display tuning into the settings of an
// interactive workspace.
func (t Tuning) WorkspaceConfig(logger *zap.Logger) workspace.Config {
	return workspace.Config{
		Gesture: gesture.Options{
			Threshold:   t.Gesture.DragThreshold,
			InnerMargin: t.Gesture.InnerMargin,
		},
		Frames:            gesture.TimerFrames{Interval: t.FrameInterval()},
		VisibleAttributes: t.Display.VisibleAttributes,
		Logger:            logger,
	}
}
