package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	berr "github.com/next-trace/scg-mics/contract/errors"
	"github.com/next-trace/scg-mics/internal/config"
	"github.com/next-trace/scg-mics/internal/slam"
)

const configJSON = `{
  "Cameras": {
    "CamerasConfigurations": [{"id": 1, "frequency": 0, "camera_key": "camera1"}],
    "camera_datas_path": "./camera_data.json"
  },
  "LiDarWorkers": {
    "LidarConfigurations": [{"id": 1, "frequency": 0}, {"id": 2, "frequency": 2}],
    "lidars_data_path": "./lidar_data.json"
  },
  "poseJsonFile": "./pose_data.json",
  "TickTime": 1,
  "Duration": 20
}`

const configYAML = `
Cameras:
  CamerasConfigurations:
    - id: 1
      frequency: 1
      camera_key: camera1
  camera_datas_path: /data/camera_data.json
LiDarWorkers:
  LidarConfigurations: []
poseJsonFile: pose_data.json
TickTime: 2
Duration: 5
`

func write(t *testing.T, dir, name, body string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	return p
}

func TestLoadJSONResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()

	c, err := config.Load(write(t, dir, "configuration_file.json", configJSON))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "camera_data.json"), c.Cameras.DataPath)
	assert.Equal(t, filepath.Join(dir, "lidar_data.json"), c.LiDarWorkers.DataPath)
	assert.Equal(t, filepath.Join(dir, "pose_data.json"), c.PoseJSONFile)
	assert.Equal(t, []config.CameraConfig{{ID: 1, Frequency: 0, Key: "camera1"}}, c.Cameras.Configurations)
	assert.Len(t, c.LiDarWorkers.Configurations, 2)
	assert.Equal(t, time.Second, c.Tick())
	assert.Equal(t, 20, c.Duration)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()

	c, err := config.Load(write(t, dir, "run.yaml", configYAML))
	require.NoError(t, err)

	assert.Equal(t, "/data/camera_data.json", c.Cameras.DataPath, "absolute paths are kept")
	assert.Equal(t, filepath.Join(dir, "pose_data.json"), c.PoseJSONFile)
	assert.Equal(t, 2*time.Second, c.Tick())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	body := `{
  "Cameras": {"CamerasConfigurations": [{"id": 1, "camera_key": ""}, {"id": 1, "camera_key": "c", "frequency": -1}]},
  "poseJsonFile": "p.json",
  "TickTime": 0,
  "Duration": 3
}`

	_, err := config.Load(write(t, dir, "bad.json", body))
	require.Error(t, err)
	require.ErrorIs(t, err, berr.ErrInvalidConfig)

	for _, want := range []string{"TickTime", "camera_datas_path", "duplicate camera id 1", "negative frequency", "camera_key is required"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(write(t, dir, "broken.json", `{"TickTime":`))
	require.ErrorIs(t, err, berr.ErrInvalidConfig)

	_, err = config.Load(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDataFiles(t *testing.T) {
	dir := t.TempDir()

	cams, err := config.LoadCameraData(write(t, dir, "camera_data.json", `{
  "camera1": [
    {"time": 2, "detectedObjects": [{"id": "Wall_1", "description": "Wall"}]},
    {"time": 4, "detectedObjects": [{"id": "ERROR", "description": "Camera Disconnected"}]}
  ]
}`))
	require.NoError(t, err)
	require.Len(t, cams["camera1"], 2)
	assert.Equal(t, slam.DetectedObject{ID: "Wall_1", Description: "Wall"}, cams["camera1"][0].DetectedObjects[0])

	scans, err := config.LoadLiDarData(write(t, dir, "lidar_data.json", `[
  {"time": 2, "id": "Wall_1", "cloudPoints": [[0.1, 0.2, 0.1], [0.3, 0.4, 0.1]]}
]`))
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, []slam.CloudPoint{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}}, scans[0].Points())

	poses, err := config.LoadPoses(write(t, dir, "pose_data.json", `[{"time": 1, "x": 0.5, "y": -1, "yaw": 45.5}]`))
	require.NoError(t, err)
	assert.Equal(t, []slam.Pose{{Time: 1, X: 0.5, Y: -1, Yaw: 45.5}}, poses)
}
