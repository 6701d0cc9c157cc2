package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reading struct {
	Systolic *int    `json:"systolic_bp,omitempty" validate:"omitempty,gte=50,lte=260"`
	Note     string  `json:"note" validate:"max=5"`
	Temp     float64 `json:"temperature" validate:"required"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()
	high := 300

	err := v.Validate(reading{Systolic: &high, Note: "too long"})
	require.Error(t, err)

	var verrs Errors
	require.ErrorAs(t, err, &verrs)
	assert.ElementsMatch(t, Errors{
		{Field: "systolic_bp", Rule: "lte", Param: "260"},
		{Field: "note", Rule: "max", Param: "5"},
		{Field: "temperature", Rule: "required"},
	}, verrs)
}

func TestValidatePassesOptionalNil(t *testing.T) {
	assert.NoError(t, New().Validate(reading{Temp: 36.6}))
}

func TestValidateField(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateField("reason", "left early", "max=100"))

	err := v.ValidateField("reason", "", "required")
	var verrs Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "reason", verrs[0].Field)
	assert.Equal(t, "required", verrs[0].Rule)
}
