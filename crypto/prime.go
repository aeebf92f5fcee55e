package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultMillerRabinRounds bounds the false-positive probability of the
// primality test by 4^-rounds.
const DefaultMillerRabinRounds = 16

// smallPrimes is used for cheap trial division before Miller-Rabin.
var smallPrimes = []int64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}

// IsProbablePrime reports whether candidate has survived rounds of
// Miller-Rabin testing with independently chosen random bases. A true result
// means no evidence of compositeness was found; it is never an absolute
// certificate. A false result is definitive.
func IsProbablePrime(candidate *big.Int, rounds int) bool {
	if candidate.Cmp(bigTwo) < 0 {
		return false
	}

	rem := new(big.Int)
	for _, p := range smallPrimes {
		sp := big.NewInt(p)
		if candidate.Cmp(sp) == 0 {
			return true
		}
		if rem.Mod(candidate, sp).Sign() == 0 {
			return false
		}
	}

	// Write candidate-1 as d * 2^s with d odd.
	nMinusOne := new(big.Int).Sub(candidate, bigOne)
	d := new(big.Int).Set(nMinusOne)
	s := 0
	for d.Bit(0) == 0 {
		d.Rsh(d, 1)
		s++
	}

	// Bases drawn uniformly from [2, candidate-2].
	baseRange := new(big.Int).Sub(candidate, big.NewInt(3))
	x := new(big.Int)
	for i := 0; i < rounds; i++ {
		a, err := rand.Int(rand.Reader, baseRange)
		if err != nil {
			return false
		}
		a.Add(a, bigTwo)

		x = ModExp(a, d, candidate)
		if x.Cmp(bigOne) == 0 || x.Cmp(nMinusOne) == 0 {
			continue
		}

		witness := true
		for j := 0; j < s-1; j++ {
			x.Mul(x, x).Mod(x, candidate)
			if x.Cmp(nMinusOne) == 0 {
				witness = false
				break
			}
		}
		if witness {
			return false
		}
	}
	return true
}

// GeneratePrime returns a probable prime of exactly bits bits. Candidates are
// drawn with the top bit forced set (to guarantee the bit length) and the low
// bit forced set (odd), then tested until one survives.
func GeneratePrime(bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, fmt.Errorf("crypto: prime bit length %d too small", bits)
	}

	max := new(big.Int).Lsh(bigOne, uint(bits))
	for {
		candidate, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, fmt.Errorf("crypto: drawing prime candidate: %w", err)
		}
		candidate.SetBit(candidate, bits-1, 1)
		candidate.SetBit(candidate, 0, 1)

		if IsProbablePrime(candidate, DefaultMillerRabinRounds) {
			return candidate, nil
		}
	}
}
