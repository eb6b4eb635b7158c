package config

var Presets = map[string]map[string]*Config{
	"p3m": {
		"melt": {
			Method: "p3m", Dt: 0.005, Steps: 200, CheckEvery: 50, Seed: 1,
			System: SystemConfig{Particles: 200, Box: [3]float64{10, 10, 10}, Charge: 1, MinDist: 0.8, Temperature: 1},
			Electrostatics: ElectrostaticsConfig{
				Prefactor: 1, Cutoff: 3, Skin: 0.3, Mesh: [3]int{32, 32, 32}, CAO: 5, Accuracy: 1e-4, Aliasing: 1,
			},
		},
		"dilute": {
			Method: "p3m", Dt: 0.01, Steps: 500, CheckEvery: 100, Seed: 1,
			System: SystemConfig{Particles: 64, Box: [3]float64{20, 20, 20}, Charge: 1, MinDist: 2, Temperature: 0.5},
			Electrostatics: ElectrostaticsConfig{
				Prefactor: 1, Cutoff: 5, Skin: 0.5, Mesh: [3]int{16, 16, 16}, CAO: 4, Accuracy: 1e-3, Aliasing: 1,
			},
		},
		"slab": {
			Method: "p3m", Dt: 0.005, Steps: 200, CheckEvery: 50, Seed: 1,
			System: SystemConfig{Particles: 150, Box: [3]float64{10, 10, 20}, Charge: 1, MinDist: 0.8, Temperature: 1},
			Electrostatics: ElectrostaticsConfig{
				Prefactor: 1, Cutoff: 3, Skin: 0.3, Mesh: [3]int{24, 24, 48}, CAO: 5, Accuracy: 1e-4, Aliasing: 1,
			},
		},
	},
	"debye-huckel": {
		"salt": {
			Method: "debye-huckel", Dt: 0.005, Steps: 500, CheckEvery: 100, Seed: 1,
			System: SystemConfig{Particles: 200, Box: [3]float64{10, 10, 10}, Charge: 1, MinDist: 0.8, Temperature: 1},
			Electrostatics: ElectrostaticsConfig{Prefactor: 1, Cutoff: 4, Skin: 0.3, Kappa: 1},
		},
	},
	"reaction-field": {
		"water": {
			Method: "reaction-field", Dt: 0.005, Steps: 500, CheckEvery: 100, Seed: 1,
			System: SystemConfig{Particles: 200, Box: [3]float64{10, 10, 10}, Charge: 1, MinDist: 0.8, Temperature: 1},
			Electrostatics: ElectrostaticsConfig{Prefactor: 1, Cutoff: 4, Skin: 0.3, Kappa: 0, Epsilon1: 1, Epsilon2: 80},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(method, preset string) *Config {
	methodPresets, ok := Presets[method]
	if !ok {
		return nil
	}
	cfg, ok := methodPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(method string) []string {
	methodPresets, ok := Presets[method]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(methodPresets))
	for name := range methodPresets {
		names = append(names, name)
	}
	return names
}
