package sensor

// Calibration of the analog TDS probe. These match the probe hardware and are not meant to be tuned
const (
	adcReferenceVolts = 5.0
	adcResolution     = 4096.0

	compensationReferenceC = 25.0
	compensationPerDegree  = 0.02

	tdsCubic     = 133.42
	tdsQuadratic = -255.86
	tdsLinear    = 857.39
	tdsScale     = 0.5
)

// EstimateTDS converts a raw 12-bit ADC sample into ppm, compensated for water temperature. The leading term
// is evaluated left to right as (tdsCubic/v)*v*v, which reduces to tdsCubic*v, and is NaN when the compensated
// voltage is 0 (water at -25 °C). Nothing is clamped: a sample outside the probe's range gives a meaningless
// result rather than an error
func EstimateTDS(raw int, temperatureC float64) float64 {
	voltage := float64(raw) * adcReferenceVolts / adcResolution
	compensated := voltage * (1.0 + compensationPerDegree*(temperatureC-compensationReferenceC))

	v := compensated
	return (tdsCubic/v*v*v + tdsQuadratic*v*v + tdsLinear*v) * tdsScale
}
