package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounterKeyIsScopedByPrefixAndDay(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "seq:APT:20240102", counterKey("APT", day))
	assert.Equal(t, "seq:MR:20240102", counterKey("MR", day))
	assert.NotEqual(t, counterKey("APT", day), counterKey("APT", day.AddDate(0, 0, 1)))
}
