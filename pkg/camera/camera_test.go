package camera

import (
	"math"
	"testing"

	"github.com/teslashibe/go-facecam/pkg/mask"
)

func almost(a, b mask.Rect) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps &&
		math.Abs(a.W-b.W) < eps && math.Abs(a.H-b.H) < eps
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("DefaultConfig should be valid, got %v", errs)
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Errorf("preset %q missing", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("nope") != nil {
		t.Error("GetPreset should return nil for unknown preset")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tiny width", func(c *Config) { c.Width = 10 }},
		{"huge height", func(c *Config) { c.Height = 10000 }},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }},
		{"quality over 100", func(c *Config) { c.Quality = 101 }},
		{"bad position", func(c *Config) { c.Position = "side" }},
		{"negative device", func(c *Config) { c.Device = -1 }},
		{"zero detection fps", func(c *Config) { c.DetectionFPS = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if errs := cfg.Validate(); len(errs) == 0 {
				t.Error("expected validation errors")
			}
		})
	}
}

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())

	var applied Config
	m.OnConfigChange = func(cfg Config) error {
		applied = cfg
		return nil
	}

	err := m.UpdateConfig(map[string]interface{}{
		"preset":  PresetLegacy,
		"quality": float64(70),
		"mirror":  false,
	})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	got := m.GetConfig()
	if got.Width != 640 || got.Height != 480 {
		t.Errorf("preset not applied: %dx%d", got.Width, got.Height)
	}
	if got.Quality != 70 || got.Mirror {
		t.Errorf("overrides not applied: %+v", got)
	}
	if applied != got {
		t.Errorf("callback got %+v, want %+v", applied, got)
	}

	if err := m.UpdateConfig(map[string]interface{}{"preset": "nope"}); err == nil {
		t.Error("expected error for unknown preset")
	}
	if err := m.UpdateConfig(map[string]interface{}{"width": 1}); err == nil {
		t.Error("expected validation error")
	}
	if m.GetConfig().Width != 640 {
		t.Error("invalid update must not change config")
	}
}

func TestSensorMapping_RoundTrip(t *testing.T) {
	view := ViewBounds(1280, 720)
	if view.W != 720 || view.H != 1280 {
		t.Fatalf("ViewBounds: got %v", view)
	}

	sensor := mask.Rect{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}

	for _, mirror := range []bool{false, true} {
		v := SensorToView(sensor, view, mirror)
		back := SensorMapping{View: view, Mirror: mirror}.OutputRect(v)
		if !almost(back, sensor) {
			t.Errorf("mirror=%v: round trip got %v, want %v", mirror, back, sensor)
		}
	}
}

func TestSensorToView_Rotation(t *testing.T) {
	view := mask.Rect{W: 100, H: 200}

	// Top-left sensor corner ends up top-right in the view
	got := SensorToView(mask.Rect{X: 0, Y: 0, W: 0.1, H: 0.1}, view, false)
	want := mask.Rect{X: 90, Y: 0, W: 10, H: 20}
	if !almost(got, want) {
		t.Errorf("SensorToView: got %v, want %v", got, want)
	}

	// Mirroring moves it back to the left
	got = SensorToView(mask.Rect{X: 0, Y: 0, W: 0.1, H: 0.1}, view, true)
	want = mask.Rect{X: 0, Y: 0, W: 10, H: 20}
	if !almost(got, want) {
		t.Errorf("SensorToView mirrored: got %v, want %v", got, want)
	}
}

func TestSensorMapping_EmptyView(t *testing.T) {
	got := SensorMapping{}.OutputRect(mask.Rect{X: 1, Y: 1, W: 1, H: 1})
	if !got.Empty() {
		t.Errorf("expected empty rect, got %v", got)
	}
}
