package encoder

// #region scalar-config
// ScalarConfig describes a single contiguous-block scalar encoder.
type ScalarConfig struct {
	Name       string
	Min        float64
	Max        float64 // exclusive for periodic encoders
	Width      int     // total bits (N)
	ActiveBits int     // bits set per value (W)
	Periodic   bool
}
// #endregion scalar-config

// #region datetime-config
// DateTimeConfig bundles the sub-encoders concatenated by DateTimeEncoder.
type DateTimeConfig struct {
	Month   ScalarConfig
	Day     ScalarConfig
	Weekday ScalarConfig
	Hour    ScalarConfig
}

// DefaultDateTimeConfig returns a 100-bit layout: month 12, day 31, weekday 21, hour 36.
func DefaultDateTimeConfig() DateTimeConfig {
	return DateTimeConfig{
		Month:   ScalarConfig{Name: "month", Min: 1, Max: 13, Width: 12, ActiveBits: 3, Periodic: true},
		Day:     ScalarConfig{Name: "day", Min: 1, Max: 32, Width: 31, ActiveBits: 3, Periodic: true},
		Weekday: ScalarConfig{Name: "weekday", Min: 0, Max: 7, Width: 21, ActiveBits: 3, Periodic: true},
		Hour:    ScalarConfig{Name: "hour", Min: 0, Max: 24, Width: 36, ActiveBits: 3, Periodic: true},
	}
}
// #endregion datetime-config
