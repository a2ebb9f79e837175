package protocol

import (
	"errors"

	"scopeblock/scope"
)

// ErrFrameTooLarge is returned when a frame does not fit the message limits
var ErrFrameTooLarge = errors.New("protocol: frame too large")

// EncodeFrame appends one message block to out: length, sequence, the
// bytes written by body, CRC16 and the sync byte. If body fails or the
// frame does not fit, out is left exactly as it was.
func EncodeFrame(out *ScratchOutput, seq uint8, body func(OutputBuffer) error) error {
	var err error
	for tx := range scope.Bind(out.Checkpoint, out.Rollback) {
		start := out.CurPosition()
		out.Output([]byte{0, MessageDest | (seq & MessageSeqMask)})

		if err = body(out); err != nil {
			break
		}

		length := len(out.DataSince(start)) + MessageTrailer
		if length > MessageLengthMax || out.Overflowed() {
			err = ErrFrameTooLarge
			break
		}
		out.Update(start+MessagePosLength, uint8(length))

		crc := CRC16(out.DataSince(start))
		out.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
		if out.Overflowed() {
			err = ErrFrameTooLarge
			break
		}

		tx.Invalidate()
	}
	return err
}

// DecodeFrame checks one complete message block and returns its payload
// and sequence number.
func DecodeFrame(frame []byte) (payload []byte, seq uint8, err error) {
	if len(frame) < MessageMin {
		return nil, 0, errors.New("protocol: short frame")
	}
	length := int(frame[MessagePosLength])
	if length < MessageMin || length > MessageLengthMax || length > len(frame) {
		return nil, 0, errors.New("protocol: bad frame length")
	}
	if frame[length-1] != MessageValueSync {
		return nil, 0, errors.New("protocol: missing sync byte")
	}
	crc := CRC16(frame[:length-MessageTrailer])
	got := uint16(frame[length-MessageTrailerCRC])<<8 | uint16(frame[length-MessageTrailerCRC+1])
	if crc != got {
		return nil, 0, errors.New("protocol: crc mismatch")
	}
	return frame[MessageHeader : length-MessageTrailer], frame[MessagePosSeq] & MessageSeqMask, nil
}

// CRC16 is the CRC-16/MCRF4XX checksum used on message blocks
// (CCITT polynomial, reflected, initial value 0xFFFF).
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		x := b ^ uint8(crc)
		x ^= x << 4
		w := uint16(x)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}
