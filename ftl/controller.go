package ftl

// Weights are the victim-scoring coefficients of the adaptive strategy.
// Alpha rewards reclaiming space-inefficient blocks, Beta rewards picking
// less-worn blocks, and Gamma penalizes moving still-valid data.
type Weights struct {
	Alpha float64
	Beta  float64
	Gamma float64
}

// Weight adaptation tuning. Every adaptation round updates exponential
// moving averages of WAF and wear variance and nudges the weights toward
// whichever pressure currently dominates.
const (
	weightFloor = 0.1
	weightCeil  = 2.0

	emaDecay    = 0.9
	adjustLarge = 0.05
	adjustSmall = 0.01

	emergencyWAFLevel = 6.0

	defaultTargetWAF      = 4.0
	defaultTargetVariance = 20.0
	defaultAdaptInterval  = 1000
)

// emergencyWeights is the profile the controller snaps to when the WAF
// moving average runs away, prioritizing reclamation efficiency over wear.
var emergencyWeights = Weights{Alpha: 1.5, Beta: 0.5, Gamma: 1.5}

// A weightController tunes the adaptive strategy's scoring weights from
// moving-average feedback signals. It is the only place the weights
// change.
type weightController struct {
	weights Weights

	wafAvg float64
	varAvg float64

	interval       uint64
	targetWAF      float64
	targetVariance float64
}

func newWeightController(interval uint64) *weightController {
	return &weightController{
		weights:        Weights{Alpha: 1.0, Beta: 1.0, Gamma: 1.0},
		wafAvg:         1.0,
		interval:       interval,
		targetWAF:      defaultTargetWAF,
		targetVariance: defaultTargetVariance,
	}
}

// adapt runs one adaptation round with the current instantaneous WAF and
// wear variance. The stabilization override snaps the weights to a fixed
// emergency profile and skips the standard adjustment for that round. Both
// standard conditions are evaluated independently and their effects add
// up. All weights stay within [weightFloor, weightCeil].
func (w *weightController) adapt(waf, variance float64) {
	w.wafAvg = emaDecay*w.wafAvg + (1-emaDecay)*waf
	w.varAvg = emaDecay*w.varAvg + (1-emaDecay)*variance

	if w.wafAvg > emergencyWAFLevel {
		w.weights = emergencyWeights
		return
	}

	if w.wafAvg > w.targetWAF {
		w.weights.Alpha += adjustLarge
		w.weights.Gamma += adjustLarge
		w.weights.Beta -= adjustSmall
	}

	if w.varAvg > w.targetVariance {
		w.weights.Beta += adjustLarge
		w.weights.Alpha -= adjustSmall
	}

	w.weights.Alpha = clamp(w.weights.Alpha, weightFloor, weightCeil)
	w.weights.Beta = clamp(w.weights.Beta, weightFloor, weightCeil)
	w.weights.Gamma = clamp(w.weights.Gamma, weightFloor, weightCeil)
}
