package crypto

import (
	"errors"
	"math/big"
)

// ErrNoInverse is returned when a modular inverse does not exist, i.e.
// gcd(a, modulus) != 1. During decryption setup this signals a malformed or
// adversarial key.
var ErrNoInverse = errors.New("crypto: no modular inverse exists")

// ErrDivisionByZero is returned by LCM when both inputs are zero.
var ErrDivisionByZero = errors.New("crypto: division by zero")

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// ModExp computes base^exp mod modulus by square-and-multiply. All operands
// are arbitrary precision; exp must be non-negative and modulus positive.
func ModExp(base, exp, modulus *big.Int) *big.Int {
	if modulus.Cmp(bigOne) == 0 {
		return new(big.Int)
	}

	result := big.NewInt(1)
	b := new(big.Int).Mod(base, modulus)
	for i := exp.BitLen() - 1; i >= 0; i-- {
		result.Mul(result, result).Mod(result, modulus)
		if exp.Bit(i) == 1 {
			result.Mul(result, b).Mod(result, modulus)
		}
	}
	return result
}

// ModInverse computes the multiplicative inverse of a modulo modulus using
// the extended Euclidean algorithm. Returns ErrNoInverse when
// gcd(a, modulus) != 1.
func ModInverse(a, modulus *big.Int) (*big.Int, error) {
	// Iterative extended Euclid on (a mod m, m), tracking only the
	// coefficient of a.
	r0 := new(big.Int).Mod(a, modulus)
	r1 := new(big.Int).Set(modulus)
	s0 := big.NewInt(1)
	s1 := big.NewInt(0)

	q := new(big.Int)
	tmp := new(big.Int)
	for r1.Sign() != 0 {
		q.Div(r0, r1)

		tmp.Mul(q, r1)
		r0.Sub(r0, tmp)
		r0, r1 = r1, r0

		tmp.Mul(q, s1)
		s0.Sub(s0, tmp)
		s0, s1 = s1, s0
	}

	if r0.Cmp(bigOne) != 0 {
		return nil, ErrNoInverse
	}
	return s0.Mod(s0, modulus), nil
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Abs(a)
	y := new(big.Int).Abs(b)
	for y.Sign() != 0 {
		x.Mod(x, y)
		x, y = y, x
	}
	return x
}

// LCM returns the least common multiple of a and b, computed as
// |a*b| / gcd(a, b). Returns ErrDivisionByZero when both inputs are zero.
func LCM(a, b *big.Int) (*big.Int, error) {
	g := GCD(a, b)
	if g.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	l := new(big.Int).Mul(a, b)
	l.Abs(l)
	return l.Div(l, g), nil
}
