package plant

import "math"

// maxHumidityDiff is the fixed normalization constant for the humidity
// term: a 50-percentage-point gap zeroes that half of the score.
const maxHumidityDiff = 50.0

// Score rates one day of observed conditions against a plant's needs on a
// 0–100 scale. Water and humidity each contribute up to 50 points,
// dropping linearly with the distance from the expected value. When
// expectedWater is zero or negative the water term contributes nothing
// rather than dividing by zero. Pure and deterministic.
func Score(actualWater, expectedWater, actualHumidity, expectedHumidity float64) int {
	var waterScore float64
	if expectedWater > 0 {
		diff := math.Abs(actualWater - expectedWater)
		waterScore = 50 * (1 - math.Min(diff/expectedWater, 1))
	}

	humidityDiff := math.Abs(actualHumidity - expectedHumidity)
	humidityScore := 50 * (1 - math.Min(humidityDiff/maxHumidityDiff, 1))

	score := int(math.Round(waterScore + humidityScore))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
