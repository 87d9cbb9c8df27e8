package noolite

// rawFrame builds a well-formed frame as the adapter would send it.
func rawFrame(mode Mode, res, ch uint8, cmd Command, data [4]byte) RawFrame {
	var f RawFrame
	f[offStart] = StartByte
	f[offMode] = byte(mode)
	f[offRes] = res
	f[offChannel] = ch
	f[offCmd] = byte(cmd)
	copy(f[offData:offData+4], data[:])
	f[offChecksum] = Checksum(f[:])
	f[offStop] = StopByte
	return f
}

func decodeRaw(raw RawFrame) Frame {
	f, err := Decode(raw[:])
	if err != nil {
		panic(err)
	}
	return f
}
