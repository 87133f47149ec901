package slam

import "sync"

// Statistics are the run counters. All methods are safe for concurrent use.
type Statistics struct {
	mu       sync.Mutex
	snapshot StatsSnapshot
}

// StatsSnapshot is a point-in-time copy of Statistics.
type StatsSnapshot struct {
	SystemRuntime      int `json:"systemRuntime"`
	NumDetectedObjects int `json:"numDetectedObjects"`
	NumTrackedObjects  int `json:"numTrackedObjects"`
	NumLandmarks       int `json:"numLandmarks"`
}

func (s *Statistics) add(f func(*StatsSnapshot)) {
	s.mu.Lock()
	f(&s.snapshot)
	s.mu.Unlock()
}

func (s *Statistics) AddRuntime(n int)   { s.add(func(v *StatsSnapshot) { v.SystemRuntime += n }) }
func (s *Statistics) AddDetected(n int)  { s.add(func(v *StatsSnapshot) { v.NumDetectedObjects += n }) }
func (s *Statistics) AddTracked(n int)   { s.add(func(v *StatsSnapshot) { v.NumTrackedObjects += n }) }
func (s *Statistics) AddLandmarks(n int) { s.add(func(v *StatsSnapshot) { v.NumLandmarks += n }) }

// Snapshot copies the counters.
func (s *Statistics) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot
}

// Crash describes the sensor fault that ended a run.
type Crash struct {
	Error        string `json:"error"`
	FaultySensor string `json:"faultySensor"`
}

// CrashRegistry keeps the last frame each sensor produced so a crash report
// can show what the system saw before failing. Only the first crash is kept.
type CrashRegistry struct {
	mu      sync.Mutex
	crash   *Crash
	cameras map[string]StampedDetectedObjects
	lidars  map[string][]TrackedObject
}

func NewCrashRegistry() *CrashRegistry {
	return &CrashRegistry{
		cameras: make(map[string]StampedDetectedObjects),
		lidars:  make(map[string][]TrackedObject),
	}
}

// RecordCameraFrame stores the latest frame of camera.
func (r *CrashRegistry) RecordCameraFrame(camera string, f StampedDetectedObjects) {
	r.mu.Lock()
	r.cameras[camera] = f
	r.mu.Unlock()
}

// RecordLiDarFrame stores the latest objects tracked by worker.
func (r *CrashRegistry) RecordLiDarFrame(worker string, objs []TrackedObject) {
	r.mu.Lock()
	r.lidars[worker] = append([]TrackedObject(nil), objs...)
	r.mu.Unlock()
}

// Report records a crash. It returns false if a crash was already recorded.
func (r *CrashRegistry) Report(c Crash) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.crash != nil {
		return false
	}

	r.crash = &c

	return true
}

// Crashed returns the recorded crash, if any.
func (r *CrashRegistry) Crashed() (Crash, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.crash == nil {
		return Crash{}, false
	}

	return *r.crash, true
}

// CameraFrames copies the last frame of every camera.
func (r *CrashRegistry) CameraFrames() map[string]StampedDetectedObjects {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]StampedDetectedObjects, len(r.cameras))
	for k, v := range r.cameras {
		out[k] = v
	}

	return out
}

// LiDarFrames copies the last tracked objects of every worker.
func (r *CrashRegistry) LiDarFrames() map[string][]TrackedObject {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string][]TrackedObject, len(r.lidars))
	for k, v := range r.lidars {
		out[k] = append([]TrackedObject(nil), v...)
	}

	return out
}
