package drive

import (
	"testing"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewBrakePulse(t *testing.T) {
	cfg := config.DefaultTuning()

	tests := []struct {
		name     string
		rate     float64
		speed    float64
		duration time.Duration
	}{
		{"at rest", 0, 0.25, 60 * time.Millisecond},
		{"slow", 50, 0.35, 55 * time.Millisecond},
		{"negative rate uses magnitude", -50, 0.35, 55 * time.Millisecond},
		{"fast caps speed", 400, 0.80, 20 * time.Millisecond},
		{"very fast floors time", 2000, 0.80, 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pulse := NewBrakePulse(cfg, tt.rate)
			assert.InDelta(t, tt.speed, pulse.Speed, 1e-9)
			assert.InDelta(t, float64(tt.duration), float64(pulse.Duration), float64(time.Microsecond))
		})
	}
}
