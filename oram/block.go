package oram

import "encoding/binary"

// emptyID marks a slot as holding no block.
const emptyID = ^uint64(0)

// slotHeaderSize is the id field width.
const slotHeaderSize = 8

func payloadSize(blockSize uint64) int {
	return int(blockSize) - slotHeaderSize
}

// encodeSlot serializes a physical block into a freshly allocated
// blockSize buffer.
func encodeSlot(blockSize uint64, id uint64, payload []byte) []byte {
	buf := make([]byte, blockSize)
	binary.LittleEndian.PutUint64(buf[0:slotHeaderSize], id)
	copy(buf[slotHeaderSize:], payload)
	return buf
}

// decodeSlot parses a block previously produced by encodeSlot.
func decodeSlot(block []byte) (id uint64, payload []byte) {
	id = binary.LittleEndian.Uint64(block[0:slotHeaderSize])
	payload = block[slotHeaderSize:]
	return
}
