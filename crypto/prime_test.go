package crypto

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsProbablePrimeSmall(t *testing.T) {
	primes := []int64{2, 3, 5, 7, 11, 13, 29, 31, 97, 101, 7919}
	for _, p := range primes {
		require.True(t, IsProbablePrime(big.NewInt(p), DefaultMillerRabinRounds), "%d should be prime", p)
	}

	composites := []int64{0, 1, 4, 6, 9, 15, 21, 25, 100, 7917}
	for _, c := range composites {
		require.False(t, IsProbablePrime(big.NewInt(c), DefaultMillerRabinRounds), "%d should be composite", c)
	}
}

func TestIsProbablePrimeCarmichael(t *testing.T) {
	// Carmichael numbers fool Fermat tests but not Miller-Rabin.
	for _, c := range []int64{561, 1105, 1729, 2465, 2821, 6601} {
		require.False(t, IsProbablePrime(big.NewInt(c), DefaultMillerRabinRounds), "%d is a Carmichael number", c)
	}
}

func TestIsProbablePrimeLarge(t *testing.T) {
	// 2^127 - 1 is a Mersenne prime.
	m127 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	require.True(t, IsProbablePrime(m127, DefaultMillerRabinRounds))

	// 2^128 - 1 factors as 3 * 5 * 17 * ...
	m128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	require.False(t, IsProbablePrime(m128, DefaultMillerRabinRounds))
}

func TestGeneratePrime(t *testing.T) {
	for _, bits := range []int{16, 64, 128} {
		p, err := GeneratePrime(bits)
		require.NoError(t, err)
		require.Equal(t, bits, p.BitLen(), "prime should be exactly %d bits", bits)
		require.Equal(t, uint(1), p.Bit(0), "prime should be odd")
		require.True(t, IsProbablePrime(p, DefaultMillerRabinRounds))
	}
}

func TestGeneratePrimeRejectsTinyBitLength(t *testing.T) {
	_, err := GeneratePrime(1)
	require.Error(t, err)
}
