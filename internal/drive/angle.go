package drive

// Normalize reduces any degree value into [0, 360).
func Normalize(angle int) int {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle
}

// ShortestError returns target - current on the shorter arc, in [-180, 180].
// Positive means target is counter-clockwise of current.
func ShortestError(target, current int) int {
	err := Normalize(target) - Normalize(current)
	if err > 180 {
		err -= 360
	} else if err < -180 {
		err += 360
	}
	return err
}

func sign(v float64) int {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(value, min, max float64) float64 {
	if value > max {
		return max
	} else if value < min {
		return min
	}
	return value
}
