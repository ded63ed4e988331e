package dht

// Scale selects the unit Temperature reports in. Celsius is canonical; the
// conversions are applied on access, never stored.
type Scale uint8

const (
	Celsius Scale = iota
	Fahrenheit
	Kelvin
)

func (s Scale) String() string {
	switch s {
	case Fahrenheit:
		return "fahrenheit"
	case Kelvin:
		return "kelvin"
	default:
		return "celsius"
	}
}

// decodeDHT11 reads the integer-only frame layout: whole-percent humidity in
// byte 0, whole-degree Celsius in byte 2. The fraction bytes are always zero
// on this variant.
func decodeDHT11(frame [frameSize]byte) (humidity, temperature float64) {
	return float64(frame[0]), float64(frame[2])
}

// decodeDHT22 reads the fixed-point frame layout: 16-bit tenths for both
// values, temperature in sign-magnitude form with the sign in bit 7 of
// byte 2.
func decodeDHT22(frame [frameSize]byte) (humidity, temperature float64) {
	humidity = float64(uint16(frame[0])<<8|uint16(frame[1])) / 10
	temperature = float64(uint16(frame[2]&0x7F)<<8|uint16(frame[3])) / 10
	if frame[2]&0x80 != 0 {
		temperature = -temperature
	}
	return humidity, temperature
}

// CelsiusToFahrenheit converts a Celsius temperature to Fahrenheit.
func CelsiusToFahrenheit(celsius float64) float64 {
	return celsius*9/5 + 32
}

// CelsiusToKelvin converts a Celsius temperature to Kelvin.
func CelsiusToKelvin(celsius float64) float64 {
	return celsius + 273.15
}
