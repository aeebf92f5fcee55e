package crypto

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModExp(t *testing.T) {
	cases := []struct {
		base, exp, mod, want int64
	}{
		{2, 10, 1000, 24},
		{3, 0, 7, 1},
		{0, 5, 7, 0},
		{7, 1, 13, 7},
		{5, 117, 19, 1}, // 5^18 = 1 mod 19, 117 mod 18 = 9, 5^9 mod 19 = 1
	}
	for _, c := range cases {
		got := ModExp(big.NewInt(c.base), big.NewInt(c.exp), big.NewInt(c.mod))
		require.Equal(t, c.want, got.Int64(), "%d^%d mod %d", c.base, c.exp, c.mod)
	}
}

func TestModExpLargeOperands(t *testing.T) {
	// Fermat: a^(p-1) = 1 mod p for a 521-bit prime (2^521 - 1).
	p := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 521), big.NewInt(1))
	a, _ := new(big.Int).SetString("3400971016232485726551449299057556896915868662226607376649412587336645327403735602289735985867921794946846307425314353924927376609169908691446758184083445", 10)

	exp := new(big.Int).Sub(p, big.NewInt(1))
	require.Zero(t, big.NewInt(1).Cmp(ModExp(a, exp, p)))
}

func TestModExpModulusOne(t *testing.T) {
	got := ModExp(big.NewInt(42), big.NewInt(13), big.NewInt(1))
	require.Zero(t, got.Sign())
}

func TestModInverse(t *testing.T) {
	inv, err := ModInverse(big.NewInt(3), big.NewInt(11))
	require.NoError(t, err)
	require.Equal(t, int64(4), inv.Int64())

	// (a * a^-1) mod m == 1 for a larger case.
	a := big.NewInt(1234567)
	m := big.NewInt(1000003) // prime
	inv, err = ModInverse(a, m)
	require.NoError(t, err)
	prod := new(big.Int).Mul(a, inv)
	require.Equal(t, int64(1), prod.Mod(prod, m).Int64())
}

func TestModInverseNoInverse(t *testing.T) {
	_, err := ModInverse(big.NewInt(6), big.NewInt(9))
	require.ErrorIs(t, err, ErrNoInverse)

	_, err = ModInverse(big.NewInt(0), big.NewInt(7))
	require.ErrorIs(t, err, ErrNoInverse)
}

func TestGCD(t *testing.T) {
	require.Equal(t, int64(6), GCD(big.NewInt(54), big.NewInt(24)).Int64())
	require.Equal(t, int64(1), GCD(big.NewInt(17), big.NewInt(31)).Int64())
	require.Equal(t, int64(7), GCD(big.NewInt(0), big.NewInt(7)).Int64())
	require.Equal(t, int64(6), GCD(big.NewInt(-54), big.NewInt(24)).Int64())
}

func TestLCM(t *testing.T) {
	l, err := LCM(big.NewInt(4), big.NewInt(6))
	require.NoError(t, err)
	require.Equal(t, int64(12), l.Int64())

	l, err = LCM(big.NewInt(0), big.NewInt(5))
	require.NoError(t, err)
	require.Zero(t, l.Sign())
}

func TestLCMBothZero(t *testing.T) {
	_, err := LCM(big.NewInt(0), big.NewInt(0))
	require.ErrorIs(t, err, ErrDivisionByZero)
}
