package profile

import (
	"math"
)

// BMI computes body mass index from weight in kilograms and height in
// centimeters, rounded to one decimal
func BMI(weightKG, heightCM float64) float64 {
	if weightKG <= 0 || heightCM <= 0 {
		return 0
	}
	meters := heightCM / 100
	return math.Round(weightKG/(meters*meters)*10) / 10
}

// BMICategory buckets a BMI value per WHO cutoffs
func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return "unknown"
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal"
	case bmi < 30:
		return "overweight"
	default:
		return "obese"
	}
}

// BMR estimates the basal metabolic rate with the revised
// Harris-Benedict equation
func BMR(p *HealthProfile) float64 {
	if p.WeightKG <= 0 || p.HeightCM <= 0 || p.Age <= 0 {
		return 0
	}
	if p.Sex == SexMale {
		return 88.362 + 13.397*p.WeightKG + 4.799*p.HeightCM - 5.677*float64(p.Age)
	}
	return 447.593 + 9.247*p.WeightKG + 3.098*p.HeightCM - 4.330*float64(p.Age)
}

// activityMultipliers maps activity level to the BMR multiplier
var activityMultipliers = map[string]float64{
	ActivitySedentary:        1.2,
	ActivityLightlyActive:    1.375,
	ActivityModeratelyActive: 1.55,
	ActivityVeryActive:       1.725,
	ActivitySuperActive:      1.9,
}

// DailyCalories estimates maintenance calories from BMR and activity
// level, defaulting to sedentary when the level is unknown
func DailyCalories(p *HealthProfile) float64 {
	multiplier, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		multiplier = activityMultipliers[ActivitySedentary]
	}
	return math.Round(BMR(p) * multiplier)
}

// InsightsFor derives the full insight set for a profile
func InsightsFor(p *HealthProfile) Insights {
	bmi := BMI(p.WeightKG, p.HeightCM)
	return Insights{
		BMI:           bmi,
		BMICategory:   BMICategory(bmi),
		BMR:           math.Round(BMR(p)*10) / 10,
		DailyCalories: DailyCalories(p),
	}
}
