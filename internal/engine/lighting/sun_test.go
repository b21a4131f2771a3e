package lighting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float32
		want     [3]float32
	}{
		{"zenith", 0, 90, [3]float32{0, 1, 0}},
		{"south horizon", 0, 0, [3]float32{0, 0, 1}},
		{"east horizon", 90, 0, [3]float32{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.lon, tt.lat)
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-5)
			}
			assert.InDelta(t, 1, got.Len(), 1e-5)
		})
	}
}

func TestLightDirectionPointsAway(t *testing.T) {
	l := LightDirection(45, 30)
	s := SunDirection(45, 30)
	assert.InDelta(t, -1, l.Dot(s), 1e-5)
	assert.Less(t, l[1], float32(0))
}
