package slam

import (
	"math"
	"sort"
	"sync"
)

// CloudPoint is a 2D point in metres.
type CloudPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LandMark is an object placed on the global map.
type LandMark struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Coordinates []CloudPoint `json:"coordinates"`
}

// ToGlobal rotates the points by the pose's yaw and translates them by its
// position, turning robot-frame coordinates into map coordinates.
func ToGlobal(pts []CloudPoint, p Pose) []CloudPoint {
	rad := p.Yaw * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	out := make([]CloudPoint, len(pts))
	for i, c := range pts {
		out[i] = CloudPoint{
			X: p.X + c.X*cos - c.Y*sin,
			Y: p.Y + c.X*sin + c.Y*cos,
		}
	}

	return out
}

// merge averages a and b pairwise. Points only b has are appended and points
// only a has are kept.
func merge(a, b []CloudPoint) []CloudPoint {
	n := max(len(a), len(b))
	out := make([]CloudPoint, 0, n)

	for i := range n {
		switch {
		case i < len(a) && i < len(b):
			out = append(out, CloudPoint{X: (a[i].X + b[i].X) / 2, Y: (a[i].Y + b[i].Y) / 2})
		case i < len(a):
			out = append(out, a[i])
		default:
			out = append(out, b[i])
		}
	}

	return out
}

// FusionSlam is the map built from tracked objects and robot poses.
type FusionSlam struct {
	mu        sync.RWMutex
	landmarks []LandMark
	index     map[string]int
	poses     map[int]Pose
}

func NewFusionSlam() *FusionSlam {
	return &FusionSlam{index: make(map[string]int), poses: make(map[int]Pose)}
}

// AddPose records the robot's pose at p.Time.
func (f *FusionSlam) AddPose(p Pose) {
	f.mu.Lock()
	f.poses[p.Time] = p
	f.mu.Unlock()
}

// PoseAt returns the pose recorded at tick.
func (f *FusionSlam) PoseAt(tick int) (Pose, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.poses[tick]

	return p, ok
}

// Integrate places obj on the map using the pose at obj.Time. It returns
// placed=false when that pose is not known yet, and added=true when obj
// created a new landmark rather than refining an existing one.
func (f *FusionSlam) Integrate(obj TrackedObject) (added, placed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pose, ok := f.poses[obj.Time]
	if !ok {
		return false, false
	}

	global := ToGlobal(obj.Coordinates, pose)

	if i, ok := f.index[obj.ID]; ok {
		f.landmarks[i].Coordinates = merge(f.landmarks[i].Coordinates, global)
		return false, true
	}

	f.index[obj.ID] = len(f.landmarks)
	f.landmarks = append(f.landmarks, LandMark{ID: obj.ID, Description: obj.Description, Coordinates: global})

	return true, true
}

// Landmarks returns a copy of the map in discovery order.
func (f *FusionSlam) Landmarks() []LandMark {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]LandMark, len(f.landmarks))
	for i, l := range f.landmarks {
		l.Coordinates = append([]CloudPoint(nil), l.Coordinates...)
		out[i] = l
	}

	return out
}

// Poses returns the recorded poses ordered by time.
func (f *FusionSlam) Poses() []Pose {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Pose, 0, len(f.poses))
	for _, p := range f.poses {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })

	return out
}
