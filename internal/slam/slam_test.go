package slam_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/scg-mics/internal/slam"
)

func TestCameraFramesDueAt(t *testing.T) {
	cam := slam.NewCamera(1, 2, "camera1", []slam.StampedDetectedObjects{
		{Time: 4, DetectedObjects: []slam.DetectedObject{{ID: "Door", Description: "door"}}},
		{Time: 1, DetectedObjects: []slam.DetectedObject{{ID: "Wall_1", Description: "wall"}}},
	})

	assert.Equal(t, "Camera1", cam.Name())
	assert.Empty(t, cam.FramesDueAt(1))

	due := cam.FramesDueAt(3)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Time)

	assert.False(t, cam.Exhausted(5))
	assert.True(t, cam.Exhausted(6))
	assert.True(t, slam.NewCamera(2, 0, "camera2", nil).Exhausted(0))
}

func TestFrameFault(t *testing.T) {
	f := slam.StampedDetectedObjects{Time: 3, DetectedObjects: []slam.DetectedObject{
		{ID: "Wall_1"},
		{ID: slam.ErrorObjectID, Description: "camera disconnected"},
	}}

	o, ok := f.Fault()
	require.True(t, ok)
	assert.Equal(t, "camera disconnected", o.Description)

	_, ok = slam.StampedDetectedObjects{}.Fault()
	assert.False(t, ok)
}

func TestLiDarTrackMatchesByIDAndTime(t *testing.T) {
	db := slam.NewLiDarDataBase([]slam.StampedCloudPoints{
		{ID: "Wall_1", Time: 2, CloudPoints: [][]float64{{0.1, 0.2, 0.3}, {1, 2}}},
		{ID: "Wall_1", Time: 5, CloudPoints: [][]float64{{9, 9}}},
		{ID: slam.ErrorObjectID, Time: 7},
	})

	assert.Equal(t, 2, db.Len())
	assert.True(t, db.FaultAt(7))
	assert.False(t, db.FaultAt(2))

	w := slam.NewLiDarWorkerTracker(1, 0)
	frame := slam.StampedDetectedObjects{Time: 2, DetectedObjects: []slam.DetectedObject{
		{ID: "Wall_1", Description: "wall"},
		{ID: "Chair", Description: "not scanned"},
	}}

	got := w.Track(db, frame)
	require.Len(t, got, 1)
	assert.Equal(t, slam.TrackedObject{
		ID:          "Wall_1",
		Time:        2,
		Description: "wall",
		Coordinates: []slam.CloudPoint{{X: 0.1, Y: 0.2}, {X: 1, Y: 2}},
	}, got[0])
	assert.Equal(t, got, w.LastTracked())
}

func TestToGlobal(t *testing.T) {
	pts := slam.ToGlobal([]slam.CloudPoint{{X: 1, Y: 0}}, slam.Pose{X: 2, Y: 3, Yaw: 90})

	require.Len(t, pts, 1)
	assert.InDelta(t, 2.0, pts[0].X, 1e-9)
	assert.InDelta(t, 4.0, pts[0].Y, 1e-9)
}

func TestIntegrateAddsThenAverages(t *testing.T) {
	f := slam.NewFusionSlam()
	obj := slam.TrackedObject{ID: "Wall_1", Time: 1, Description: "wall", Coordinates: []slam.CloudPoint{{X: 1, Y: 1}}}

	_, placed := f.Integrate(obj)
	assert.False(t, placed, "no pose yet")

	f.AddPose(slam.Pose{Time: 1})
	f.AddPose(slam.Pose{Time: 2, X: 2})

	added, placed := f.Integrate(obj)
	assert.True(t, placed)
	assert.True(t, added)

	obj.Time = 2
	obj.Coordinates = []slam.CloudPoint{{X: 1, Y: 3}, {X: 5, Y: 5}}

	added, placed = f.Integrate(obj)
	assert.True(t, placed)
	assert.False(t, added)

	lms := f.Landmarks()
	require.Len(t, lms, 1)
	assert.Equal(t, []slam.CloudPoint{{X: 2, Y: 2}, {X: 7, Y: 5}}, lms[0].Coordinates)

	lms[0].Coordinates[0].X = 100
	assert.InDelta(t, 2.0, f.Landmarks()[0].Coordinates[0].X, 1e-9, "Landmarks returns a copy")

	assert.Equal(t, []slam.Pose{{Time: 1}, {Time: 2, X: 2}}, f.Poses())
}

func TestGPSIMU(t *testing.T) {
	g := slam.NewGPSIMU([]slam.Pose{{Time: 1, X: 1}, {Time: 3, X: 3}})

	p, ok := g.PoseAt(3)
	require.True(t, ok)
	assert.InDelta(t, 3.0, p.X, 0)

	_, ok = g.PoseAt(2)
	assert.False(t, ok)
	assert.False(t, g.Exhausted(2))
	assert.True(t, g.Exhausted(3))
}

func TestStatisticsConcurrent(t *testing.T) {
	var s slam.Statistics
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			s.AddRuntime(1)
			s.AddDetected(2)
			s.AddTracked(3)
			s.AddLandmarks(1)
		}()
	}

	wg.Wait()

	assert.Equal(t, slam.StatsSnapshot{SystemRuntime: 20, NumDetectedObjects: 40, NumTrackedObjects: 60, NumLandmarks: 20}, s.Snapshot())
}

func TestCrashRegistryKeepsFirstCrash(t *testing.T) {
	r := slam.NewCrashRegistry()

	_, crashed := r.Crashed()
	assert.False(t, crashed)

	r.RecordCameraFrame("camera1", slam.StampedDetectedObjects{Time: 2})
	r.RecordCameraFrame("camera1", slam.StampedDetectedObjects{Time: 4})
	r.RecordLiDarFrame("LiDarWorkerTracker1", []slam.TrackedObject{{ID: "Wall_1"}})

	assert.True(t, r.Report(slam.Crash{Error: "disconnected", FaultySensor: "Camera1"}))
	assert.False(t, r.Report(slam.Crash{Error: "later", FaultySensor: "LiDarWorkerTracker1"}))

	c, crashed := r.Crashed()
	require.True(t, crashed)
	assert.Equal(t, "Camera1", c.FaultySensor)
	assert.Equal(t, 4, r.CameraFrames()["camera1"].Time)
	assert.Len(t, r.LiDarFrames()["LiDarWorkerTracker1"], 1)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "UP", slam.StatusUp.String())
	assert.Equal(t, "ERROR", slam.StatusError.String())
	assert.Equal(t, "lidar", slam.KindLiDar.String())
	assert.Equal(t, "unknown", slam.Kind(42).String())
}
