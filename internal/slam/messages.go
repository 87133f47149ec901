package slam

import cbus "github.com/next-trace/scg-mics/contract/bus"

// Kind is the role of a service in the simulation.
type Kind int

const (
	KindTime Kind = iota
	KindCamera
	KindLiDar
	KindPose
	KindFusion
)

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindCamera:
		return "camera"
	case KindLiDar:
		return "lidar"
	case KindPose:
		return "pose"
	case KindFusion:
		return "fusion"
	default:
		return "unknown"
	}
}

// TickBroadcast advances simulated time. Ticks start at 1.
type TickBroadcast struct {
	cbus.BroadcastOf
	Tick int
}

// TerminatedBroadcast announces that a service has finished.
type TerminatedBroadcast struct {
	cbus.BroadcastOf
	Sender string
	Kind   Kind
}

// CrashedBroadcast announces a sensor fault. Every service stops on it.
type CrashedBroadcast struct {
	cbus.BroadcastOf
	Error        string
	FaultySensor string
	Sender       string
}

// DetectObjectsEvent carries a camera frame to a LiDAR worker.
type DetectObjectsEvent struct {
	cbus.EventOf[bool]
	Camera string
	Frame  StampedDetectedObjects
}

// TrackedObjectsEvent carries tracked objects to FusionSLAM.
type TrackedObjectsEvent struct {
	cbus.EventOf[bool]
	Worker  string
	Objects []TrackedObject
}

// PoseEvent carries the robot's pose to FusionSLAM.
type PoseEvent struct {
	cbus.EventOf[bool]
	Pose Pose
}
