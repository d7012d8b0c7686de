package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLegacy  = "legacy"
	Preset1080p   = "1080p"
	PresetBack    = "back"
	PresetLowCPU  = "lowcpu"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLegacy:  LegacyConfig(),
		Preset1080p:   HD1080Config(),
		PresetBack:    BackConfig(),
		PresetLowCPU:  LowCPUConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetLegacy,
		Preset1080p,
		PresetBack,
		PresetLowCPU,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// LegacyConfig returns a 640x480 configuration for older webcams.
func LegacyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

// HD1080Config returns 1080p Full HD configuration.
// Sharper crops, higher CPU usage.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	return cfg
}

// BackConfig returns a rear camera configuration, used for card capture.
func BackConfig() Config {
	cfg := DefaultConfig()
	cfg.Device = 1
	cfg.Position = PositionBack
	cfg.Mirror = false
	return cfg
}

// LowCPUConfig trades detection rate for CPU on small boards.
func LowCPUConfig() Config {
	cfg := LegacyConfig()
	cfg.Framerate = 15
	cfg.DetectionFPS = 4
	cfg.PreviewWidth = 320
	return cfg
}
