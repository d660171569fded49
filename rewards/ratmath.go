package rewards

import (
	"errors"
	"math/big"
)

// maxBits bounds every intermediate numerator/denominator to a 512-bit
// ceiling. No pack library supplies a real fixed-512-bit integer
// (github.com/holiman/uint256 only goes to 256 bits, see DESIGN.md), so
// checkedRat wraps math/big.Rat and enforces the ceiling on every
// operation instead.
const maxBits = 512

// ErrArithmeticOverflow is returned once a checkedRat accumulation has
// exceeded maxBits in either its numerator or denominator. Silent
// wrapping is never acceptable here; this is the surfaced form of that
// failure.
var ErrArithmeticOverflow = errors.New("rewards: arithmetic overflow in rational accumulation")

// checkedRat poisons itself on overflow: once an operation exceeds
// maxBits, the value is marked poisoned and every subsequent operation on
// it stays poisoned, so a single unchecked overflow can never silently
// propagate a wrong result.
type checkedRat struct {
	v        *big.Rat
	poisoned bool
}

func newCheckedRat(v *big.Rat) *checkedRat {
	return &checkedRat{v: v}
}

func zeroRat() *checkedRat {
	return newCheckedRat(new(big.Rat))
}

func ratFromUint64Fraction(num, den uint64) *checkedRat {
	if den == 0 {
		return &checkedRat{poisoned: true}
	}
	return newCheckedRat(new(big.Rat).SetFrac(new(big.Int).SetUint64(num), new(big.Int).SetUint64(den)))
}

func ratFromBigInt(v *big.Int) *checkedRat {
	return newCheckedRat(new(big.Rat).SetInt(v))
}

func ratFromBigIntFraction(num, den *big.Int) *checkedRat {
	if den.Sign() == 0 {
		return &checkedRat{poisoned: true}
	}
	return newCheckedRat(new(big.Rat).SetFrac(num, den))
}

func fitsMaxBits(r *big.Rat) bool {
	return r.Num().BitLen() <= maxBits && r.Denom().BitLen() <= maxBits
}

func (c *checkedRat) add(other *checkedRat) *checkedRat {
	if c.poisoned || other.poisoned {
		return &checkedRat{poisoned: true}
	}
	sum := new(big.Rat).Add(c.v, other.v)
	if !fitsMaxBits(sum) {
		return &checkedRat{poisoned: true}
	}
	return newCheckedRat(sum)
}

func (c *checkedRat) mul(other *checkedRat) *checkedRat {
	if c.poisoned || other.poisoned {
		return &checkedRat{poisoned: true}
	}
	prod := new(big.Rat).Mul(c.v, other.v)
	if !fitsMaxBits(prod) {
		return &checkedRat{poisoned: true}
	}
	return newCheckedRat(prod)
}

// toInteger truncates toward zero. It is the single conversion point:
// callers sum every component as a rational first and convert only once,
// after full summation, so truncation error can never compound.
func (c *checkedRat) toInteger() (*big.Int, error) {
	if c.poisoned {
		return nil, ErrArithmeticOverflow
	}
	q := new(big.Int)
	q.Quo(c.v.Num(), c.v.Denom())
	return q, nil
}

// Rational is the JSON/config-facing representation of a non-negative
// rational parameter (round_seigniorage_rate, finders_fee,
// finality_signature_proportion), expressed as a fraction of two uint64s
// to stay plain-data like the rest of config.Config.
type Rational struct {
	Num uint64
	Den uint64
}

func (r Rational) toCheckedRat() *checkedRat {
	return ratFromUint64Fraction(r.Num, r.Den)
}

// complement returns 1 - r as a checkedRat; used to derive
// production_proportion = 1 - finality_signature_proportion and
// contribution_proportion = (1 - finders_fee) * finality_signature_proportion.
func (r Rational) complement() *checkedRat {
	one := ratFromUint64Fraction(1, 1)
	return one.add(&checkedRat{v: new(big.Rat).Neg(r.toCheckedRat().v)})
}
