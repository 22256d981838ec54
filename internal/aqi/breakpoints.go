package aqi

// breakpoint is one row of a pollutant's piecewise-linear AQI mapping:
// concentrations in [ConcLow, ConcHigh] map linearly onto [AQILow, AQIHigh].
type breakpoint struct {
	ConcLow  float64
	ConcHigh float64
	AQILow   int
	AQIHigh  int
}

// EPA breakpoint tables. PM2.5 and PM10 are in µg/m³, NO2 and O3 in ppb,
// CO in ppm, SO2 in ppb. Readings carry µg/m³ (CO mg/m³); the conversion
// factors below translate where the table unit differs.
var breakpoints = map[Pollutant][]breakpoint{
	PollutantPM25: {
		{0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 500.4, 301, 500},
	},
	PollutantPM10: {
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 604, 301, 500},
	},
	PollutantNO2: {
		{0, 53, 0, 50},
		{54, 100, 51, 100},
		{101, 360, 101, 150},
		{361, 649, 151, 200},
		{650, 1249, 201, 300},
		{1250, 2049, 301, 500},
	},
	PollutantO3: {
		{0, 54, 0, 50},
		{55, 70, 51, 100},
		{71, 85, 101, 150},
		{86, 105, 151, 200},
		{106, 200, 201, 300},
		{201, 400, 301, 500},
	},
	PollutantCO: {
		{0, 4.4, 0, 50},
		{4.5, 9.4, 51, 100},
		{9.5, 12.4, 101, 150},
		{12.5, 15.4, 151, 200},
		{15.5, 30.4, 201, 300},
		{30.5, 50.4, 301, 500},
	},
	PollutantSO2: {
		{0, 35, 0, 50},
		{36, 75, 51, 100},
		{76, 185, 101, 150},
		{186, 304, 151, 200},
		{305, 604, 201, 300},
		{605, 1004, 301, 500},
	},
}

// Molar volume at 25°C and 1 atm, used for mass/volume unit conversion.
const molarVolume = 24.45

// Molecular weights (g/mol) for gas pollutants.
const (
	molWeightCO  = 28.01
	molWeightSO2 = 64.07
)

// toTableUnits converts a reading concentration into the unit of the
// pollutant's breakpoint table. CO readings are mg/m³ and the CO table is
// ppm; SO2 readings are µg/m³ and the SO2 table is ppb. NO2 and O3 values
// are applied to their tables as-is.
func toTableUnits(p Pollutant, conc float64) float64 {
	switch p {
	case PollutantCO:
		return conc * molarVolume / molWeightCO
	case PollutantSO2:
		return conc * molarVolume / molWeightSO2
	default:
		return conc
	}
}
