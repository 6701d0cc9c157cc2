package model

// VitalSigns holds the measurements taken at the vitals station. Every field
// is optional; ranges mirror what the vitals desk accepts.
type VitalSigns struct {
	SystolicBP  *int     `json:"systolic_bp,omitempty" validate:"omitempty,min=50,max=300"`
	DiastolicBP *int     `json:"diastolic_bp,omitempty" validate:"omitempty,min=30,max=200"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,min=30,max=45"`
	PulseRate   *int     `json:"pulse_rate,omitempty" validate:"omitempty,min=30,max=200"`
	HeightCm    *int     `json:"height_cm,omitempty" validate:"omitempty,min=50,max=250"`
	WeightKg    *float64 `json:"weight_kg,omitempty" validate:"omitempty,min=1,max=500"`
}
