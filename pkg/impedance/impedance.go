// Package impedance converts averaged quadrature measurements into complex
// impedance values via the resistive-divider model of the analog front end:
// the DUT forms one leg of a divider against a known reference impedance,
// driven through a series resistor.
package impedance

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/jtarim/golockin/pkg/lockin"
)

// ErrIndeterminate indicates the divider denominator collapsed to (near)
// zero, so no finite impedance can be reported. This happens when the DUT
// response is indistinguishable from the open-circuit calibration.
var ErrIndeterminate = errors.New("impedance indeterminate: degenerate divider denominator")

// epsDenominator is the magnitude below which the denominator is treated
// as zero.
const epsDenominator = 1e-9

// Impedance is a complex impedance in Ohm.
type Impedance struct {
	Real float64
	Imag float64
}

// Complex returns the impedance as a complex128.
func (z Impedance) Complex() complex128 {
	return complex(z.Real, z.Imag)
}

// Magnitude returns |Z|.
func (z Impedance) Magnitude() float64 {
	return cmplx.Abs(z.Complex())
}

// Phase returns the argument of Z in radians.
func (z Impedance) Phase() float64 {
	return cmplx.Phase(z.Complex())
}

func (z Impedance) String() string {
	if z.Imag < 0 {
		return fmt.Sprintf("%.2f - %.2fi Ohm", z.Real, -z.Imag)
	}
	return fmt.Sprintf("%.2f + %.2fi Ohm", z.Real, z.Imag)
}

// ToComplex folds a four-component quadrature vector into a complex
// response: the in-phase pair v[1]-v[3] forms the real part, the quadrature
// pair v[0]-v[2] the imaginary part.
func ToComplex(v lockin.Vector) Impedance {
	return Impedance{
		Real: float64(v[1] - v[3]),
		Imag: float64(v[0] - v[2]),
	}
}

// Compute combines an open-circuit calibration vector and a DUT vector into
// the DUT impedance:
//
//	Z = (Rref * Rseries * (Vdut - Vshort)) / (Rref + Rseries * (Vopen - Vdut))
//
// with the short-circuit response idealized to zero. A near-zero
// denominator yields ErrIndeterminate instead of infinities.
func Compute(open, dut lockin.Vector, series, reference float64) (Impedance, error) {
	vOpen := ToComplex(open).Complex()
	vDut := ToComplex(dut).Complex()

	num := complex(reference*series, 0) * vDut
	den := complex(reference, 0) + complex(series, 0)*(vOpen-vDut)
	if cmplx.Abs(den) < epsDenominator {
		return Impedance{}, ErrIndeterminate
	}

	z := num / den
	return Impedance{Real: real(z), Imag: imag(z)}, nil
}

// Calculator binds the divider constants from configuration.
type Calculator struct {
	Series    float64 // Ohm, resistor in series with the excitation
	Reference float64 // Ohm, known reference leg of the divider
}

// Compute applies the divider model with the calculator's constants.
func (c Calculator) Compute(open, dut lockin.Vector) (Impedance, error) {
	return Compute(open, dut, c.Series, c.Reference)
}
