// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used for transform and
kernel sizing. Every function is constant time, allocation free and safe to
call from the audio callback.

Usage:

	// Round a requested transform size up to the next power of two
	size := bitint.NextPowerOfTwo(1000) // 1024

	// Snap a kernel width to the closest power of two
	width := bitint.NearestPowerOfTwo(23) // 16

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of two are preserved: 8-1 = 0111 has length 3 and 1<<3 = 8, while
bits.Len(8) = 4 would double the input.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size, or 1 for size <= 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// NearestPowerOfTwo returns the power of 2 closest to size. Ties round up.
// Sizes below 1 return 1.
//
//	Input  Output
//	23     16
//	24     32
//	1000   1024
func NearestPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	hi := NextPowerOfTwo(size)
	lo := hi >> 1
	if size-lo < hi-size {
		return lo
	}
	return hi
}

// Log2 returns floor(log2(n)) for n > 0 and -1 otherwise.
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.Len(uint(n)) - 1
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of two have
// a single bit set, so n & (n-1) clears it to zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
