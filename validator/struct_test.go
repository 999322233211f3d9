package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	Level  int    `json:"level" validate:"gte=0,lte=6"`
	Path   string `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	errs := ValidateStruct(&sample{Format: "xml", Level: 9})

	assert.Equal(t, "The field 'format' must be one of [text json].", errs["format"])
	assert.Equal(t, "The field 'level' must be less than or equal to 6.", errs["level"])
	assert.Equal(t, "The field 'Path' is required.", errs["Path"])

	assert.Empty(t, ValidateStruct(&sample{Path: "/tmp"}))
}

func TestStruct(t *testing.T) {
	err := Struct("logger", &sample{Level: -1, Path: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid logger config")
	assert.Contains(t, err.Error(), "'level'")

	var missing *sample
	assert.NoError(t, Struct("logger", missing))
	assert.NoError(t, Struct("logger", &sample{Path: "x"}))
}
