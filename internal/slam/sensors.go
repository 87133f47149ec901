package slam

import (
	"fmt"
	"sort"
	"sync"
)

// ErrorObjectID marks a sensor reading that reports a device fault.
const ErrorObjectID = "ERROR"

// Status is the operational state of a sensor.
type Status int

const (
	StatusUp Status = iota
	StatusDown
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUp:
		return "UP"
	case StatusDown:
		return "DOWN"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DetectedObject is an object a camera recognised in a frame.
type DetectedObject struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
}

// StampedDetectedObjects is one camera frame.
type StampedDetectedObjects struct {
	Time            int              `json:"time" yaml:"time"`
	DetectedObjects []DetectedObject `json:"detectedObjects" yaml:"detectedObjects"`
}

// Fault returns the first object reporting a device error.
func (s StampedDetectedObjects) Fault() (DetectedObject, bool) {
	for _, o := range s.DetectedObjects {
		if o.ID == ErrorObjectID {
			return o, true
		}
	}

	return DetectedObject{}, false
}

// Camera is a camera sensor and the frames it will report.
type Camera struct {
	ID        int
	Frequency int
	Key       string
	Status    Status

	frames []StampedDetectedObjects
}

// NewCamera returns a camera in the UP state. Frames are ordered by time.
func NewCamera(id, frequency int, key string, frames []StampedDetectedObjects) *Camera {
	fs := append([]StampedDetectedObjects(nil), frames...)
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].Time < fs[j].Time })

	return &Camera{ID: id, Frequency: frequency, Key: key, Status: StatusUp, frames: fs}
}

// Name identifies the camera in reports.
func (c *Camera) Name() string { return fmt.Sprintf("Camera%d", c.ID) }

// FramesDueAt returns the frames that become available at tick: those
// captured frequency ticks earlier.
func (c *Camera) FramesDueAt(tick int) []StampedDetectedObjects {
	var due []StampedDetectedObjects

	for _, f := range c.frames {
		if f.Time+c.Frequency == tick {
			due = append(due, f)
		}
	}

	return due
}

// Exhausted reports whether every frame has been due by tick.
func (c *Camera) Exhausted(tick int) bool {
	if len(c.frames) == 0 {
		return true
	}

	return c.frames[len(c.frames)-1].Time+c.Frequency <= tick
}

// StampedCloudPoints is one LiDAR scan of an object.
type StampedCloudPoints struct {
	ID          string      `json:"id" yaml:"id"`
	Time        int         `json:"time" yaml:"time"`
	CloudPoints [][]float64 `json:"cloudPoints" yaml:"cloudPoints"`
}

// Points converts the raw coordinates to 2D points. A trailing z is dropped.
func (s StampedCloudPoints) Points() []CloudPoint {
	pts := make([]CloudPoint, 0, len(s.CloudPoints))

	for _, c := range s.CloudPoints {
		if len(c) < 2 {
			continue
		}

		pts = append(pts, CloudPoint{X: c[0], Y: c[1]})
	}

	return pts
}

type scanKey struct {
	id   string
	time int
}

// LiDarDataBase indexes LiDAR scans by object id and time.
// It is shared by all LiDAR workers.
type LiDarDataBase struct {
	mu     sync.RWMutex
	scans  map[scanKey]StampedCloudPoints
	faults map[int]bool
}

// NewLiDarDataBase indexes scans. A later scan of the same object at the
// same time replaces an earlier one.
func NewLiDarDataBase(scans []StampedCloudPoints) *LiDarDataBase {
	db := &LiDarDataBase{
		scans:  make(map[scanKey]StampedCloudPoints, len(scans)),
		faults: make(map[int]bool),
	}

	for _, s := range scans {
		if s.ID == ErrorObjectID {
			db.faults[s.Time] = true
			continue
		}

		db.scans[scanKey{s.ID, s.Time}] = s
	}

	return db
}

// Lookup returns the scan of object id taken at time.
func (db *LiDarDataBase) Lookup(id string, time int) (StampedCloudPoints, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s, ok := db.scans[scanKey{id, time}]

	return s, ok
}

// FaultAt reports whether the LiDAR hardware failed at time.
func (db *LiDarDataBase) FaultAt(time int) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.faults[time]
}

// Len returns the number of indexed scans.
func (db *LiDarDataBase) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.scans)
}

// TrackedObject is a detected object with the LiDAR points measured for it,
// in the robot's frame at Time.
type TrackedObject struct {
	ID          string       `json:"id"`
	Time        int          `json:"time"`
	Description string       `json:"description"`
	Coordinates []CloudPoint `json:"coordinates"`
}

// LiDarWorkerTracker is a LiDAR worker and the last objects it tracked.
type LiDarWorkerTracker struct {
	ID        int
	Frequency int
	Status    Status

	mu          sync.Mutex
	lastTracked []TrackedObject
}

// NewLiDarWorkerTracker returns a worker in the UP state.
func NewLiDarWorkerTracker(id, frequency int) *LiDarWorkerTracker {
	return &LiDarWorkerTracker{ID: id, Frequency: frequency, Status: StatusUp}
}

// Name identifies the worker in reports.
func (w *LiDarWorkerTracker) Name() string { return fmt.Sprintf("LiDarWorkerTracker%d", w.ID) }

// Track matches a camera frame against db. Objects without a scan are skipped.
func (w *LiDarWorkerTracker) Track(db *LiDarDataBase, frame StampedDetectedObjects) []TrackedObject {
	tracked := make([]TrackedObject, 0, len(frame.DetectedObjects))

	for _, o := range frame.DetectedObjects {
		scan, ok := db.Lookup(o.ID, frame.Time)
		if !ok {
			continue
		}

		tracked = append(tracked, TrackedObject{
			ID:          o.ID,
			Time:        frame.Time,
			Description: o.Description,
			Coordinates: scan.Points(),
		})
	}

	w.mu.Lock()
	w.lastTracked = tracked
	w.mu.Unlock()

	return tracked
}

// LastTracked returns the objects of the most recent Track call.
func (w *LiDarWorkerTracker) LastTracked() []TrackedObject {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]TrackedObject(nil), w.lastTracked...)
}

// Pose is the robot's position and heading at a tick. Yaw is in degrees.
type Pose struct {
	Time int     `json:"time" yaml:"time"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	Yaw  float64 `json:"yaw" yaml:"yaw"`
}

// GPSIMU replays recorded poses.
type GPSIMU struct {
	Status Status

	poses map[int]Pose
	last  int
}

// NewGPSIMU indexes poses by time.
func NewGPSIMU(poses []Pose) *GPSIMU {
	g := &GPSIMU{Status: StatusUp, poses: make(map[int]Pose, len(poses))}

	for _, p := range poses {
		g.poses[p.Time] = p
		if p.Time > g.last {
			g.last = p.Time
		}
	}

	return g
}

// PoseAt returns the pose recorded at tick.
func (g *GPSIMU) PoseAt(tick int) (Pose, bool) {
	p, ok := g.poses[tick]
	return p, ok
}

// Exhausted reports whether no pose is recorded after tick.
func (g *GPSIMU) Exhausted(tick int) bool { return tick >= g.last }
