package pngchunk

import "sync"

// crcPolynomial is the reflected form of the PNG/zlib CRC-32 polynomial.
const crcPolynomial = 0xEDB88320

var crcTable = sync.OnceValue(func() *[256]uint32 {
	var table [256]uint32
	for n := range table {
		c := uint32(n)
		for range 8 {
			if c&1 != 0 {
				c = crcPolynomial ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		table[n] = c
	}
	return &table
})

// Checksum returns the CRC-32 of b as stored in PNG chunk trailers.
func Checksum(b []byte) uint32 {
	return Update(0, b)
}

// Update continues a running checksum. Passing the result of a previous
// Checksum or Update call yields the CRC of the concatenated input, so the
// chunk type and data can be hashed without copying them together.
func Update(crc uint32, b []byte) uint32 {
	table := crcTable()
	c := ^crc
	for _, v := range b {
		c = table[byte(c)^v] ^ (c >> 8)
	}
	return ^c
}

// chunkCRC computes the CRC over type ++ data.
func chunkCRC(typ Type, data []byte) uint32 {
	return Update(Checksum(typ[:]), data)
}
