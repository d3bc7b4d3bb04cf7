package jet

import "math"

// Series holds the coefficients c[0] + c[1] h + c[2] h^2 + ... of a
// truncated power series.
type Series []float64

// Const returns the constant c as a series of length n.
func Const(c float64, n int) Series {
	s := make(Series, n)
	if n > 0 {
		s[0] = c
	}
	return s
}

// ConstLike returns c with the length of like.
func ConstLike(c float64, like Series) Series {
	return Const(c, len(like))
}

// Eval evaluates the series at h with Horner's scheme.
func (s Series) Eval(h float64) float64 {
	acc := 0.0
	for k := len(s) - 1; k >= 0; k-- {
		acc = acc*h + s[k]
	}
	return acc
}

// Deriv returns the coefficients of the derivative with respect to h.
func (s Series) Deriv() Series {
	if len(s) <= 1 {
		return Series{0}
	}
	d := make(Series, len(s)-1)
	for k := 1; k < len(s); k++ {
		d[k-1] = float64(k) * s[k]
	}
	return d
}

func Add(a, b Series) Series {
	r := make(Series, len(a))
	for k := range r {
		r[k] = a[k] + b[k]
	}
	return r
}

func Sub(a, b Series) Series {
	r := make(Series, len(a))
	for k := range r {
		r[k] = a[k] - b[k]
	}
	return r
}

func Neg(a Series) Series {
	r := make(Series, len(a))
	for k := range r {
		r[k] = -a[k]
	}
	return r
}

// Scale multiplies every coefficient by c.
func Scale(a Series, c float64) Series {
	r := make(Series, len(a))
	for k := range r {
		r[k] = c * a[k]
	}
	return r
}

// Shift adds the constant c.
func Shift(a Series, c float64) Series {
	r := make(Series, len(a))
	copy(r, a)
	if len(r) > 0 {
		r[0] += c
	}
	return r
}

// Mul is the Cauchy product.
func Mul(a, b Series) Series {
	r := make(Series, len(a))
	for k := range r {
		acc := 0.0
		for j := 0; j <= k; j++ {
			acc += a[j] * b[k-j]
		}
		r[k] = acc
	}
	return r
}

func Square(a Series) Series {
	r := make(Series, len(a))
	for k := range r {
		acc := 0.0
		for j := 0; j < (k+1)/2; j++ {
			acc += a[j] * a[k-j]
		}
		acc *= 2
		if k%2 == 0 {
			acc += a[k/2] * a[k/2]
		}
		r[k] = acc
	}
	return r
}

// Div requires b[0] != 0; otherwise the result is non-finite.
func Div(a, b Series) Series {
	r := make(Series, len(a))
	for k := range r {
		acc := a[k]
		for j := 1; j <= k; j++ {
			acc -= b[j] * r[k-j]
		}
		r[k] = acc / b[0]
	}
	return r
}

func Exp(a Series) Series {
	r := make(Series, len(a))
	if len(r) == 0 {
		return r
	}
	r[0] = math.Exp(a[0])
	for k := 1; k < len(r); k++ {
		acc := 0.0
		for j := 1; j <= k; j++ {
			acc += float64(j) * a[j] * r[k-j]
		}
		r[k] = acc / float64(k)
	}
	return r
}

func Log(a Series) Series {
	r := make(Series, len(a))
	if len(r) == 0 {
		return r
	}
	r[0] = math.Log(a[0])
	for k := 1; k < len(r); k++ {
		acc := 0.0
		for j := 1; j < k; j++ {
			acc += float64(j) * r[j] * a[k-j]
		}
		r[k] = (a[k] - acc/float64(k)) / a[0]
	}
	return r
}

// Pow raises a to the constant power alpha; a[0] must be positive unless
// alpha is a small integer handled exactly by repeated products.
func Pow(a Series, alpha float64) Series {
	r := make(Series, len(a))
	if len(r) == 0 {
		return r
	}
	r[0] = math.Pow(a[0], alpha)
	for k := 1; k < len(r); k++ {
		acc := 0.0
		for j := 0; j < k; j++ {
			acc += (alpha*float64(k-j) - float64(j)) * a[k-j] * r[j]
		}
		r[k] = acc / (float64(k) * a[0])
	}
	return r
}

func Sqrt(a Series) Series {
	r := make(Series, len(a))
	if len(r) == 0 {
		return r
	}
	r[0] = math.Sqrt(a[0])
	for k := 1; k < len(r); k++ {
		acc := 0.0
		for j := 1; j < k; j++ {
			acc += r[j] * r[k-j]
		}
		r[k] = (a[k] - acc) / (2 * r[0])
	}
	return r
}

// SinCos returns sin(a) and cos(a) computed with the coupled recurrence.
func SinCos(a Series) (Series, Series) {
	s := make(Series, len(a))
	c := make(Series, len(a))
	if len(a) == 0 {
		return s, c
	}
	s[0], c[0] = math.Sincos(a[0])
	for k := 1; k < len(a); k++ {
		accS, accC := 0.0, 0.0
		for j := 1; j <= k; j++ {
			ja := float64(j) * a[j]
			accS += ja * c[k-j]
			accC += ja * s[k-j]
		}
		s[k] = accS / float64(k)
		c[k] = -accC / float64(k)
	}
	return s, c
}

func Sin(a Series) Series {
	s, _ := SinCos(a)
	return s
}

func Cos(a Series) Series {
	_, c := SinCos(a)
	return c
}
