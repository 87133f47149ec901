// Package config loads a GurionRock run configuration and the sensor data
// files it points to.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	berr "github.com/next-trace/scg-mics/contract/errors"
	"github.com/next-trace/scg-mics/internal/slam"
)

// Config is the top-level run configuration.
type Config struct {
	Cameras      CamerasConfig `json:"Cameras" yaml:"Cameras"`
	LiDarWorkers LiDarConfig   `json:"LiDarWorkers" yaml:"LiDarWorkers"`
	PoseJSONFile string        `json:"poseJsonFile" yaml:"poseJsonFile"`
	// TickTime is the number of seconds between ticks.
	TickTime int `json:"TickTime" yaml:"TickTime"`
	// Duration is the number of ticks in a run.
	Duration int `json:"Duration" yaml:"Duration"`
}

type CamerasConfig struct {
	Configurations []CameraConfig `json:"CamerasConfigurations" yaml:"CamerasConfigurations"`
	DataPath       string         `json:"camera_datas_path" yaml:"camera_datas_path"`
}

type CameraConfig struct {
	ID        int    `json:"id" yaml:"id"`
	Frequency int    `json:"frequency" yaml:"frequency"`
	Key       string `json:"camera_key" yaml:"camera_key"`
}

type LiDarConfig struct {
	Configurations []LiDarWorkerConfig `json:"LidarConfigurations" yaml:"LidarConfigurations"`
	DataPath       string              `json:"lidars_data_path" yaml:"lidars_data_path"`
}

type LiDarWorkerConfig struct {
	ID        int `json:"id" yaml:"id"`
	Frequency int `json:"frequency" yaml:"frequency"`
}

// Tick returns TickTime as a duration.
func (c *Config) Tick() time.Duration { return time.Duration(c.TickTime) * time.Second }

// Load reads the configuration at path. YAML is used for .yaml and .yml
// files, JSON otherwise. Relative data paths are resolved against the
// directory holding the configuration file.
func Load(path string) (*Config, error) {
	var c Config
	if err := decodeFile(path, &c); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	c.Cameras.DataPath = resolve(dir, c.Cameras.DataPath)
	c.LiDarWorkers.DataPath = resolve(dir, c.LiDarWorkers.DataPath)
	c.PoseJSONFile = resolve(dir, c.PoseJSONFile)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return &c, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(dir, p)
}

// Validate reports every problem found, joined, each wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), berr.ErrInvalidConfig))
	}

	if c.TickTime <= 0 {
		invalid("TickTime must be positive, got %d", c.TickTime)
	}

	if c.Duration <= 0 {
		invalid("Duration must be positive, got %d", c.Duration)
	}

	if c.PoseJSONFile == "" {
		invalid("poseJsonFile is required")
	}

	if len(c.Cameras.Configurations) > 0 && c.Cameras.DataPath == "" {
		invalid("camera_datas_path is required when cameras are configured")
	}

	if len(c.LiDarWorkers.Configurations) > 0 && c.LiDarWorkers.DataPath == "" {
		invalid("lidars_data_path is required when LiDAR workers are configured")
	}

	cams := make(map[int]bool)
	for _, cam := range c.Cameras.Configurations {
		if cams[cam.ID] {
			invalid("duplicate camera id %d", cam.ID)
		}
		cams[cam.ID] = true

		if cam.Frequency < 0 {
			invalid("camera %d: negative frequency", cam.ID)
		}

		if cam.Key == "" {
			invalid("camera %d: camera_key is required", cam.ID)
		}
	}

	workers := make(map[int]bool)
	for _, w := range c.LiDarWorkers.Configurations {
		if workers[w.ID] {
			invalid("duplicate LiDAR worker id %d", w.ID)
		}
		workers[w.ID] = true

		if w.Frequency < 0 {
			invalid("LiDAR worker %d: negative frequency", w.ID)
		}
	}

	return errors.Join(errs...)
}

// LoadCameraData reads camera frames keyed by camera_key.
func LoadCameraData(path string) (map[string][]slam.StampedDetectedObjects, error) {
	var data map[string][]slam.StampedDetectedObjects
	if err := decodeFile(path, &data); err != nil {
		return nil, err
	}

	return data, nil
}

// LoadLiDarData reads the LiDAR scans.
func LoadLiDarData(path string) ([]slam.StampedCloudPoints, error) {
	var data []slam.StampedCloudPoints
	if err := decodeFile(path, &data); err != nil {
		return nil, err
	}

	return data, nil
}

// LoadPoses reads the recorded robot poses.
func LoadPoses(path string) ([]slam.Pose, error) {
	var data []slam.Pose
	if err := decodeFile(path, &data); err != nil {
		return nil, err
	}

	return data, nil
}

func decodeFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, v)
	default:
		err = json.Unmarshal(raw, v)
	}

	if err != nil {
		return fmt.Errorf("decode %s: %w", path, errors.Join(berr.ErrInvalidConfig, err))
	}

	return nil
}
