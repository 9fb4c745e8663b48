package scene

import "cogentcore.org/core/math32"

// Camera is a perspective camera looking at Target.
type Camera struct {
	Position math32.Vector3 `json:"position"`
	Target   math32.Vector3 `json:"target"`
	Fov      float32        `json:"fov"`
	Near     float32        `json:"near"`
	Far      float32        `json:"far"`
}

// Controls are the orbit-control parameters of the camera.
type Controls struct {
	EnableDamping bool    `json:"enableDamping"`
	RotateSpeed   float32 `json:"rotateSpeed"`
	MinDistance   float32 `json:"minDistance"`
	MaxDistance   float32 `json:"maxDistance"`
}

// Camera and control defaults restored by ResetCamera.
const (
	DefaultFov         = 50
	DefaultNear        = 0.1
	DefaultFar         = 1000
	DefaultDistance    = 40
	DefaultRotateSpeed = 0.5
	DefaultMinDistance = 2
	DefaultMaxDistance = 150

	// ReplacedRotateSpeed is applied after every mesh replacement.
	ReplacedRotateSpeed = -0.5
)

func defaultCamera() Camera {
	return Camera{
		Position: math32.Vec3(0, 0, DefaultDistance),
		Fov:      DefaultFov,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
}

func defaultControls() Controls {
	return Controls{
		EnableDamping: true,
		RotateSpeed:   DefaultRotateSpeed,
		MinDistance:   DefaultMinDistance,
		MaxDistance:   DefaultMaxDistance,
	}
}
