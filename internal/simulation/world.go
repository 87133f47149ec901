package simulation

import (
	"fmt"

	"github.com/next-trace/scg-mics/internal/config"
	"github.com/next-trace/scg-mics/internal/slam"
)

// World is the sensor setup of a run, built from a configuration and its
// data files.
type World struct {
	Cameras []*slam.Camera
	Workers []*slam.LiDarWorkerTracker
	LiDarDB *slam.LiDarDataBase
	GPS     *slam.GPSIMU
	// MissingCameraData lists camera keys absent from the camera data file.
	MissingCameraData []string
}

// LoadWorld reads the data files named by cfg.
func LoadWorld(cfg *config.Config) (*World, error) {
	w := &World{}

	if len(cfg.Cameras.Configurations) > 0 {
		frames, err := config.LoadCameraData(cfg.Cameras.DataPath)
		if err != nil {
			return nil, fmt.Errorf("camera data: %w", err)
		}

		for _, c := range cfg.Cameras.Configurations {
			fs, ok := frames[c.Key]
			if !ok {
				w.MissingCameraData = append(w.MissingCameraData, c.Key)
			}

			w.Cameras = append(w.Cameras, slam.NewCamera(c.ID, c.Frequency, c.Key, fs))
		}
	}

	var scans []slam.StampedCloudPoints

	if len(cfg.LiDarWorkers.Configurations) > 0 {
		var err error
		if scans, err = config.LoadLiDarData(cfg.LiDarWorkers.DataPath); err != nil {
			return nil, fmt.Errorf("lidar data: %w", err)
		}
	}

	w.LiDarDB = slam.NewLiDarDataBase(scans)

	for _, c := range cfg.LiDarWorkers.Configurations {
		w.Workers = append(w.Workers, slam.NewLiDarWorkerTracker(c.ID, c.Frequency))
	}

	poses, err := config.LoadPoses(cfg.PoseJSONFile)
	if err != nil {
		return nil, fmt.Errorf("pose data: %w", err)
	}

	w.GPS = slam.NewGPSIMU(poses)

	return w, nil
}

// Sensors is the number of sensor services FusionSLAM waits for.
func (w *World) Sensors() int { return len(w.Cameras) + len(w.Workers) + 1 }
