package baseline

import (
	"math"
	"math/rand"

	"FPSpectra/internal/model"
)

// Autoencoder is an online reconstruction baseline: a single-bottleneck
// network (input -> hidden ReLU -> sigmoid output) trained by one SGD
// step per transaction over the folded item-presence vector. The anomaly
// score is the mean squared reconstruction error, which for binary
// inputs and sigmoid outputs stays in [0,1]. Weights adapt continuously,
// so the model tracks concept drift without an explicit window.
type Autoencoder struct {
	hidden int
	lr     float64
	seed   int64

	w1 [][hsDims]float64 // hidden x input
	b1 []float64
	w2 [][]float64 // input x hidden
	b2 [hsDims]float64
}

// NewAutoencoder creates the detector with deterministic seeded weights.
func NewAutoencoder(hidden int, learningRate float64, seed int64) *Autoencoder {
	if hidden < 1 {
		hidden = 1
	}
	if learningRate <= 0 {
		learningRate = 0.01
	}
	a := &Autoencoder{hidden: hidden, lr: learningRate, seed: seed}
	a.initWeights()
	return a
}

func (a *Autoencoder) initWeights() {
	rng := rand.New(rand.NewSource(a.seed))
	scale := math.Sqrt(6 / float64(hsDims+a.hidden))

	a.w1 = make([][hsDims]float64, a.hidden)
	a.b1 = make([]float64, a.hidden)
	for j := range a.w1 {
		for d := 0; d < hsDims; d++ {
			a.w1[j][d] = (rng.Float64()*2 - 1) * scale
		}
	}
	a.w2 = make([][]float64, hsDims)
	for i := range a.w2 {
		a.w2[i] = make([]float64, a.hidden)
		for j := 0; j < a.hidden; j++ {
			a.w2[i][j] = (rng.Float64()*2 - 1) * scale
		}
	}
	a.b2 = [hsDims]float64{}
}

func (a *Autoencoder) Name() string { return "autoencoder" }

// Observe scores the transaction's reconstruction error with the current
// weights, then takes one gradient step on it.
func (a *Autoencoder) Observe(txn *model.Transaction) float64 {
	var x [hsDims]float64
	vectorize(txn.Items, &x)

	z, y := a.forward(&x)
	err := 0.0
	for d := 0; d < hsDims; d++ {
		diff := y[d] - x[d]
		err += diff * diff
	}
	a.train(&x, z, y)
	return err / hsDims
}

// Warm replays a transaction as a training step without scoring. The
// weights carry no cadence state, so remaining is unused.
func (a *Autoencoder) Warm(txn *model.Transaction, remaining int) {
	var x [hsDims]float64
	vectorize(txn.Items, &x)
	z, y := a.forward(&x)
	a.train(&x, z, y)
}

func (a *Autoencoder) forward(x *[hsDims]float64) ([]float64, *[hsDims]float64) {
	z := make([]float64, a.hidden)
	for j := 0; j < a.hidden; j++ {
		sum := a.b1[j]
		for d := 0; d < hsDims; d++ {
			sum += a.w1[j][d] * x[d]
		}
		if sum > 0 {
			z[j] = sum
		}
	}
	var y [hsDims]float64
	for d := 0; d < hsDims; d++ {
		sum := a.b2[d]
		for j := 0; j < a.hidden; j++ {
			sum += a.w2[d][j] * z[j]
		}
		y[d] = 1 / (1 + math.Exp(-sum))
	}
	return z, &y
}

// train backpropagates the squared reconstruction error of one vector.
func (a *Autoencoder) train(x *[hsDims]float64, z []float64, y *[hsDims]float64) {
	var dOut [hsDims]float64
	for d := 0; d < hsDims; d++ {
		dOut[d] = 2 * (y[d] - x[d]) * y[d] * (1 - y[d])
	}

	dHidden := make([]float64, a.hidden)
	for j := 0; j < a.hidden; j++ {
		if z[j] <= 0 {
			continue // ReLU gradient is zero here
		}
		sum := 0.0
		for d := 0; d < hsDims; d++ {
			sum += dOut[d] * a.w2[d][j]
		}
		dHidden[j] = sum
	}

	for d := 0; d < hsDims; d++ {
		for j := 0; j < a.hidden; j++ {
			a.w2[d][j] -= a.lr * dOut[d] * z[j]
		}
		a.b2[d] -= a.lr * dOut[d]
	}
	for j := 0; j < a.hidden; j++ {
		if dHidden[j] == 0 {
			continue
		}
		for d := 0; d < hsDims; d++ {
			a.w1[j][d] -= a.lr * dHidden[j] * x[d]
		}
		a.b1[j] -= a.lr * dHidden[j]
	}
}

// Reset reinitialises the weights from the seed so a reset detector
// replays identically.
func (a *Autoencoder) Reset() {
	a.initWeights()
}
