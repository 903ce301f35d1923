package battery

import "math"

type breakpoint struct {
	volts   float64
	percent float64
}

// LiPo discharge curve, highest voltage first.
var curve = []breakpoint{
	{4.2, 100},
	{4.0, 90},
	{3.8, 70},
	{3.6, 40},
	{3.3, 10},
	{3.0, 0},
}

// VoltageFromRaw converts an ADC reading to the battery voltage, clamped to
// [VMin, VMax].
func VoltageFromRaw(raw int, cfg Config) float64 {
	if cfg.ADCMax <= 0 {
		return cfg.VMin
	}
	v := float64(raw) * cfg.VRef / float64(cfg.ADCMax) * cfg.Divider
	return clamp(v, cfg.VMin, cfg.VMax)
}

// Percent maps a voltage onto the discharge curve by linear interpolation
// between breakpoints. The result is rounded and clamped to [0, 100].
func Percent(v float64) int {
	if math.IsNaN(v) || v <= curve[len(curve)-1].volts {
		return 0
	}
	if v >= curve[0].volts {
		return 100
	}
	for i := 0; i < len(curve)-1; i++ {
		hi, lo := curve[i], curve[i+1]
		if v >= lo.volts {
			p := lo.percent + (v-lo.volts)/(hi.volts-lo.volts)*(hi.percent-lo.percent)
			return int(clamp(math.Round(p), 0, 100))
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
