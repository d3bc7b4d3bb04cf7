package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the real FFT of data with its mean
// removed, one value per frequency bin 0..n/2.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	centred := make([]float64, n)
	copy(centred, data)
	floats.AddConst(-stat.Mean(data, nil), centred)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centred)

	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the frequency, in cycles per time unit, of the
// strongest non-zero bin of data sampled every dt.
func DominantFrequency(data []float64, dt float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0
	}
	best := 1 + floats.MaxIdx(ps[1:])
	return fourier.NewFFT(len(data)).Freq(best) / dt
}
