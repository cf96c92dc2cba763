package srp6

import "math/big"

// ModPow computes base^exp mod m using left-to-right square-and-multiply.
//
// Every exponent bit costs one squaring and one multiplication; for zero bits
// the product is computed and thrown away so the number of big-integer
// operations only depends on the bit length of exp. math/big itself is not
// constant time, so this narrows the timing signal rather than removing it.
func ModPow(base, exp, m *big.Int) *big.Int {
	if m.Sign() <= 0 {
		panic("srp6: modulus must be positive")
	}

	one := big.NewInt(1)
	result := new(big.Int).Mod(one, m) // 1 mod 1 == 0
	b := new(big.Int).Mod(base, m)
	scratch := new(big.Int)

	for i := exp.BitLen() - 1; i >= 0; i-- {
		result.Mul(result, result)
		result.Mod(result, m)

		scratch.Mul(result, b)
		scratch.Mod(scratch, m)
		if exp.Bit(i) == 1 {
			result, scratch = scratch, result
		}
	}

	return result
}
