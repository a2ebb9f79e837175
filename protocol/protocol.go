// Package protocol holds the serial framing buffers shared between the
// UART interrupt and the firmware main loop.
package protocol

// Framing constants (Klipper message block layout)
const (
	MessageMax        = 512 // Scratch output capacity
	MessageHeader     = 2   // Length + sequence
	MessageTrailer    = 3   // CRC16 + sync
	MessageMin        = MessageHeader + MessageTrailer
	MessageLengthMax  = 64 // Largest single frame
	MessageValueSync  = 0x7E
	MessageDest       = 0x10
	MessageSeqMask    = 0x0F
	MessagePosLength  = 0
	MessagePosSeq     = 1
	MessageTrailerCRC = 3
)
