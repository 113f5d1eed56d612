package classify

import "testing"

func TestClassify_Categories(t *testing.T) {
	tests := []struct {
		name     string
		features Features
		want     string
	}{
		{
			name:     "silence below noise floor",
			features: Features{NoiseLevel: 30, LowFreqEnergy: 0.2, MidFreqEnergy: 0.2, HighFreqEnergy: 0.2, Volatility: 0.3},
			want:     LabelSilence,
		},
		{
			name:     "silence boundary just under 45",
			features: Features{NoiseLevel: 44.9, MidFreqEnergy: 0.9, Volatility: 0.1},
			want:     LabelSilence,
		},
		{
			name:     "typing with volatile high band",
			features: Features{NoiseLevel: 60, LowFreqEnergy: 0.1, MidFreqEnergy: 0.2, HighFreqEnergy: 0.7, Volatility: 0.8},
			want:     LabelTyping,
		},
		{
			name:     "vehicle rumble",
			features: Features{NoiseLevel: 80, LowFreqEnergy: 0.5, MidFreqEnergy: 0.3, HighFreqEnergy: 0.2, Volatility: 0.08},
			want:     LabelVehicle,
		},
		{
			name:     "music with balanced bands",
			features: Features{NoiseLevel: 60, LowFreqEnergy: 0.4, MidFreqEnergy: 0.3, HighFreqEnergy: 0.35, Volatility: 0.5},
			want:     LabelMusic,
		},
		{
			name:     "speech in mid band",
			features: Features{NoiseLevel: 60, LowFreqEnergy: 0.2, MidFreqEnergy: 0.6, HighFreqEnergy: 0.5, Volatility: 0.3},
			want:     LabelSpeech,
		},
		{
			name:     "default falls through to speech",
			features: Features{NoiseLevel: 90, LowFreqEnergy: 0.1, MidFreqEnergy: 0.1, HighFreqEnergy: 0.1, Volatility: 0.9},
			want:     LabelSpeech,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.features); got != tt.want {
				t.Errorf("Classify(%+v) = %q, want %q", tt.features, got, tt.want)
			}
		})
	}
}

// TestClassify_RuleOrder verifies that earlier rules shadow later ones.
// This reading satisfies both the typing and vehicle predicates; typing
// must win because it is evaluated first.
func TestClassify_RuleOrder(t *testing.T) {
	f := Features{
		NoiseLevel:     80,
		LowFreqEnergy:  0.5,
		MidFreqEnergy:  0.2,
		HighFreqEnergy: 0.55,
		Volatility:     0.9,
	}
	if got := Classify(f); got != LabelTyping {
		t.Errorf("Classify() = %q, want %q (rule order is decisive)", got, LabelTyping)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	f := Features{NoiseLevel: 67, LowFreqEnergy: 0.44, MidFreqEnergy: 0.52, HighFreqEnergy: 0.31, Volatility: 0.48}
	first := Classify(f)
	for i := 0; i < 100; i++ {
		if got := Classify(f); got != first {
			t.Fatalf("Classify() unstable: got %q then %q", first, got)
		}
	}
}

func TestClassify_TotalOverOutOfRangeInputs(t *testing.T) {
	// Out-of-range values must still classify to one of the labels.
	inputs := []Features{
		{NoiseLevel: -10},
		{NoiseLevel: 500, LowFreqEnergy: 3, HighFreqEnergy: -1, Volatility: 2},
		{},
	}
	valid := map[string]bool{
		LabelSilence: true, LabelTyping: true, LabelVehicle: true,
		LabelMusic: true, LabelSpeech: true,
	}
	for _, f := range inputs {
		if got := Classify(f); !valid[got] {
			t.Errorf("Classify(%+v) = %q, not a known label", f, got)
		}
	}
}

func TestNewFeatures_Defaults(t *testing.T) {
	f := NewFeatures(50, nil, nil, nil, nil)

	if f.LowFreqEnergy != DefaultLowFreqEnergy {
		t.Errorf("LowFreqEnergy = %v, want default %v", f.LowFreqEnergy, DefaultLowFreqEnergy)
	}
	if f.MidFreqEnergy != DefaultMidFreqEnergy {
		t.Errorf("MidFreqEnergy = %v, want default %v", f.MidFreqEnergy, DefaultMidFreqEnergy)
	}
	if f.HighFreqEnergy != DefaultHighFreqEnergy {
		t.Errorf("HighFreqEnergy = %v, want default %v", f.HighFreqEnergy, DefaultHighFreqEnergy)
	}
	if f.Volatility != DefaultVolatility {
		t.Errorf("Volatility = %v, want default %v", f.Volatility, DefaultVolatility)
	}
}

func TestNewFeatures_ExplicitValuesWin(t *testing.T) {
	low, vol := 0.7, 0.9
	f := NewFeatures(50, &low, nil, nil, &vol)

	if f.LowFreqEnergy != 0.7 {
		t.Errorf("LowFreqEnergy = %v, want 0.7", f.LowFreqEnergy)
	}
	if f.Volatility != 0.9 {
		t.Errorf("Volatility = %v, want 0.9", f.Volatility)
	}
	if f.MidFreqEnergy != DefaultMidFreqEnergy {
		t.Errorf("MidFreqEnergy = %v, want default", f.MidFreqEnergy)
	}
}
