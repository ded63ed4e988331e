package dht

import "math"

// DewPoint computes the dew point in Celsius from an air temperature in
// Celsius and a relative humidity percentage, using the NOAA saturation
// vapor pressure polynomial.
// Reference: http://wahiduddin.net/calc/density_algorithms.htm
func DewPoint(celsius, humidity float64) float64 {
	a0 := 373.15 / (273.15 + celsius)
	sum := -7.90298 * (a0 - 1)
	sum += 5.02808 * math.Log10(a0)
	sum += -1.3816e-7 * (math.Pow(10, 11.344*(1-1/a0)) - 1)
	sum += 8.1328e-3 * (math.Pow(10, -3.49149*(a0-1)) - 1)
	sum += math.Log10(1013.246)
	vp := math.Pow(10, sum-3) * humidity
	t := math.Log(vp / 0.61078)
	return (241.88 * t) / (17.558 - t)
}

// DewPointFast approximates the dew point with the Magnus formula. It stays
// within 0.6544C of DewPoint over the sensor's operating range and is about
// five times cheaper.
// Reference: http://en.wikipedia.org/wiki/Dew_point
func DewPointFast(celsius, humidity float64) float64 {
	const (
		a = 17.271
		b = 237.7
	)
	t := (a*celsius)/(b+celsius) + math.Log(humidity/100)
	return (b * t) / (a - t)
}
