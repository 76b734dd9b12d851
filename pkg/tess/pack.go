package tess

import "math"

// Instance buffers carry rotation, a visibility flag, and an interactive
// "moving" flag through a single float32 channel. The float's bit pattern
// is a tiny codec: the upper 16 bits quantize the angle over [0, 2π), bit 0
// is visibility, bit 1 marks an instance currently being dragged.
const (
	packAngleShift = 16
	packAngleMax   = 0xFFFF

	packVisibleBit = 1 << 0
	packMovingBit  = 1 << 1
)

// PackRotation encodes an angle in radians plus the two flags into a
// float32 bit pattern. The angle is normalized to [0, 2π) and quantized to
// 16 bits (about 0.0055 degrees per step).
func PackRotation(angle float32, visible, moving bool) float32 {
	a := math.Mod(float64(angle), 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	q := uint32(a/(2*math.Pi)*packAngleMax+0.5) & packAngleMax

	bits := q << packAngleShift
	if visible {
		bits |= packVisibleBit
	}
	if moving {
		bits |= packMovingBit
	}
	return math.Float32frombits(bits)
}

// UnpackRotation decodes a value produced by PackRotation.
func UnpackRotation(packed float32) (angle float32, visible, moving bool) {
	bits := math.Float32bits(packed)
	q := (bits >> packAngleShift) & packAngleMax
	angle = float32(float64(q) / packAngleMax * 2 * math.Pi)
	return angle, bits&packVisibleBit != 0, bits&packMovingBit != 0
}
