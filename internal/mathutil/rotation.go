package mathutil

import "math"

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Orbit is the view rotation of a camera circling the origin: yaw turns the
// model about +Y, then pitch tilts it about +X. Angles in degrees.
func Orbit(yaw, pitch float64) Mat3 {
	cy, sy := math.Cos(Deg2Rad(yaw)), math.Sin(Deg2Rad(yaw))
	cp, sp := math.Cos(Deg2Rad(pitch)), math.Sin(Deg2Rad(pitch))
	return Mat3{
		cy, 0, sy,
		sp * sy, cp, -sp * cy,
		-cp * sy, sp, cp * cy,
	}
}
