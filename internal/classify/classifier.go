package classify

import "math"

// Sound category labels produced by Classify.
const (
	LabelSilence = "silence"
	LabelTyping  = "typing"
	LabelVehicle = "vehicle"
	LabelMusic   = "music"
	LabelSpeech  = "speech"

	// LabelUnknown is never produced by Classify. It is the fallback label
	// used at the ingest boundary when no feature vector and no
	// producer-supplied label are available.
	LabelUnknown = "unknown"
)

// Defaults applied to absent feature inputs.
const (
	DefaultLowFreqEnergy  = 0.2
	DefaultMidFreqEnergy  = 0.2
	DefaultHighFreqEnergy = 0.2
	DefaultVolatility     = 0.3
)

// Features is a fully-populated audio feature vector. Frequency energies
// and volatility are expected in [0,1] and the noise level in producer
// units (typically 0-120), but no field is clamped: classification is total
// over all inputs.
type Features struct {
	NoiseLevel     float64
	LowFreqEnergy  float64
	MidFreqEnergy  float64
	HighFreqEnergy float64
	Volatility     float64
}

// NewFeatures builds a Features value from possibly-absent inputs, applying
// the documented defaults for nil fields.
func NewFeatures(noiseLevel float64, low, mid, high, volatility *float64) Features {
	f := Features{
		NoiseLevel:     noiseLevel,
		LowFreqEnergy:  DefaultLowFreqEnergy,
		MidFreqEnergy:  DefaultMidFreqEnergy,
		HighFreqEnergy: DefaultHighFreqEnergy,
		Volatility:     DefaultVolatility,
	}
	if low != nil {
		f.LowFreqEnergy = *low
	}
	if mid != nil {
		f.MidFreqEnergy = *mid
	}
	if high != nil {
		f.HighFreqEnergy = *high
	}
	if volatility != nil {
		f.Volatility = *volatility
	}
	return f
}

// rule pairs a label with its predicate. Rules are evaluated in slice
// order and the first match wins, so the ordering below is part of the
// classifier's contract.
type rule struct {
	label string
	match func(Features) bool
}

// rules is the ordered decision list. Earlier rules shadow later ones:
// a high-volatility, high-frequency reading is typing even when its low
// band and noise level would also satisfy the vehicle rule.
var rules = []rule{
	{
		label: LabelSilence,
		match: func(f Features) bool {
			return f.NoiseLevel < 45
		},
	},
	{
		label: LabelTyping,
		match: func(f Features) bool {
			return f.Volatility > 0.55 && f.HighFreqEnergy > 0.5
		},
	},
	{
		label: LabelVehicle,
		match: func(f Features) bool {
			return f.LowFreqEnergy > 0.45 && f.NoiseLevel > 72
		},
	},
	{
		label: LabelMusic,
		match: func(f Features) bool {
			return math.Abs(f.LowFreqEnergy-f.HighFreqEnergy) < 0.15 &&
				f.Volatility > 0.35 && f.Volatility < 0.65
		},
	},
	{
		label: LabelSpeech,
		match: func(f Features) bool {
			return f.MidFreqEnergy > 0.5 && f.Volatility < 0.55 &&
				f.NoiseLevel > 45 && f.NoiseLevel < 80
		},
	},
}

// Classify maps a feature vector to a sound category label.
//
// The function is deterministic, total and side-effect free: every input
// produces a label, out-of-range values included. When no rule matches,
// the reading is classified as speech.
func Classify(f Features) string {
	for _, r := range rules {
		if r.match(f) {
			return r.label
		}
	}
	return LabelSpeech
}
