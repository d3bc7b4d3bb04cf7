package taylor

// dtime is a double-length time value hi+lo, so long propagations do not
// lose the low bits of small steps.
type dtime struct {
	hi, lo float64
}

func dtimeOf(t float64) dtime {
	return dtime{hi: t}
}

func twoSum(a, b float64) (float64, float64) {
	s := a + b
	bb := s - a
	return s, (a - (s - bb)) + (b - bb)
}

func (d dtime) add(x float64) dtime {
	s, e := twoSum(d.hi, x)
	e += d.lo
	hi, lo := twoSum(s, e)
	return dtime{hi: hi, lo: lo}
}

// sub returns d - o rounded to a float64.
func (d dtime) sub(o dtime) float64 {
	s, e := twoSum(d.hi, -o.hi)
	return s + (e + (d.lo - o.lo))
}

func (d dtime) float() float64 {
	return d.hi + d.lo
}
