package protocol

// ReceiveFrames decodes every complete frame waiting in in and passes each
// payload to handle. A partial frame stays buffered for the next call.
// Bytes that do not form a valid frame are dropped up to and including the
// next sync byte; the number of such resyncs is returned.
func ReceiveFrames(in InputBuffer, handle func(seq uint8, payload []byte)) int {
	bad := 0
	data := in.Data()
	for len(data) >= MessageMin {
		length := int(data[MessagePosLength])
		if length >= MessageMin && length <= MessageLengthMax && len(data) < length {
			break
		}

		payload, seq, err := DecodeFrame(data)
		if err != nil {
			skip := resync(data)
			in.Pop(skip)
			data = data[skip:]
			bad++
			continue
		}

		handle(seq, payload)
		in.Pop(length)
		data = data[length:]
	}
	return bad
}

// resync returns how many bytes to drop to get past the next sync byte
func resync(data []byte) int {
	for i, b := range data {
		if b == MessageValueSync {
			return i + 1
		}
	}
	return len(data)
}
