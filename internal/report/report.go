// Package report assembles the output of a simulation run and persists it.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/next-trace/scg-mics/internal/slam"
)

// Output is the result of a run. The crash fields are set only when a
// sensor failed.
type Output struct {
	slam.StatsSnapshot

	LandMarks map[string]slam.LandMark `json:"landMarks"`

	Error                        string                                 `json:"error,omitempty"`
	FaultySensor                 string                                 `json:"faultySensor,omitempty"`
	LastCamerasFrame             map[string]slam.StampedDetectedObjects `json:"lastCamerasFrame,omitempty"`
	LastLiDarWorkerTrackersFrame map[string][]slam.TrackedObject        `json:"lastLiDarWorkerTrackersFrame,omitempty"`
	Poses                        []slam.Pose                            `json:"poses,omitempty"`
}

// Crashed reports whether the run ended with a sensor fault.
func (o *Output) Crashed() bool { return o.FaultySensor != "" }

// Build collects the final state of a run.
func Build(stats *slam.Statistics, fusion *slam.FusionSlam, crash *slam.CrashRegistry) Output {
	out := Output{
		StatsSnapshot: stats.Snapshot(),
		LandMarks:     make(map[string]slam.LandMark),
	}

	for _, l := range fusion.Landmarks() {
		out.LandMarks[l.ID] = l
	}

	if c, ok := crash.Crashed(); ok {
		out.Error = c.Error
		out.FaultySensor = c.FaultySensor
		out.LastCamerasFrame = crash.CameraFrames()
		out.LastLiDarWorkerTrackersFrame = crash.LiDarFrames()
		out.Poses = fusion.Poses()
	}

	return out
}

// WriteJSON writes out to path as indented JSON.
func WriteJSON(path string, out Output) error {
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}

	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}

	return nil
}
