package midi

// Header and timestamp bytes always carry bit 7.
const (
	HeaderByte    = 0x80
	TimestampByte = 0x80
)

// MaxPacketLen is the longest packet produced (header, timestamp, 3 bytes).
const MaxPacketLen = 5

// Encode builds a BLE-MIDI packet with the constant timestamp placeholder:
//
//	[0x80][0x80][status|ch-1][data1][data2]
//
// ProgramChange packets have no second data byte. A channel outside 1..16
// yields (nil, false).
func Encode(msg Message) ([]byte, bool) {
	return encode(msg, HeaderByte, TimestampByte)
}

// EncodeAt builds a BLE-MIDI packet carrying a 13-bit millisecond
// timestamp: the high 6 bits go into the header, the low 7 bits into the
// timestamp byte.
func EncodeAt(msg Message, ms uint16) ([]byte, bool) {
	ms &= 0x1FFF
	return encode(msg, HeaderByte|byte(ms>>7)&0x3F, TimestampByte|byte(ms)&0x7F)
}

func encode(msg Message, header, ts byte) ([]byte, bool) {
	w, ok := msg.wire()
	if !ok {
		return nil, false
	}
	pkt := make([]byte, 0, MaxPacketLen)
	pkt = append(pkt, header, ts)
	pkt = append(pkt, w...)
	return pkt, true
}
