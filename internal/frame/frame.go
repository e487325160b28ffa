// Package frame turns raw Mode S byte buffers into internal/message.Message
// values: CRC check and single/two-bit error correction, the ICAO
// recently-seen whitelist used to validate AP-xored downlink formats, and
// field extraction for the subset of downlink formats and extended
// squitter types the tracker needs (identification, airborne position,
// velocity, altitude, squawk).
//
// Richer fields the tracker core can also consume (accuracy.*, opstatus.*,
// nav.*) are intentionally left for a caller to populate — the full BDS
// register decode they come from is an external collaborator, out of this
// package's scope.
package frame

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"go1090track/internal/message"
)

const (
	icaoCacheTTL = 60 * time.Second

	longMsgBits  = 112
	shortMsgBits = 56

	unitFeet   = 0
	unitMeters = 1
)

// Decoder holds the configuration and ICAO whitelist cache needed to
// decode a stream of Mode S frames.
type Decoder struct {
	icaoCache   *cache.Cache
	fixErrors   bool
	aggressive  bool
}

// NewDecoder returns a ready Decoder with single-bit error correction
// enabled and aggressive (two-bit, DF17-only) correction disabled.
func NewDecoder() *Decoder {
	return &Decoder{
		icaoCache: cache.New(icaoCacheTTL, 10*time.Second),
		fixErrors: true,
	}
}

// SetAggressive toggles two-bit error correction for DF17 frames.
func (d *Decoder) SetAggressive(on bool) { d.aggressive = on }

func messageLenByType(msgType int) int {
	switch msgType {
	case 16, 17, 18, 19, 20, 21:
		return longMsgBits
	default:
		return shortMsgBits
	}
}

var checksumTable = [...]uint32{
	0x3935ea, 0x1c9af5, 0xf1b77e, 0x78dbbf, 0xc397db, 0x9e31e9, 0xb0e2f0, 0x587178,
	0x2c38bc, 0x161c5e, 0x0b0e2f, 0xfa7d13, 0x82c48d, 0xbe9842, 0x5f4c21, 0xd05c14,
	0x682e0a, 0x341705, 0xe5f186, 0x72f8c3, 0xc68665, 0x9cb936, 0x4e5c9b, 0xd8d449,
	0x939020, 0x49c810, 0x24e408, 0x127204, 0x093902, 0x049c81, 0xfdb444, 0x7eda22,
	0x3f6d11, 0xe04c8c, 0x702646, 0x381323, 0xe3f395, 0x8e03ce, 0x4701e7, 0xdc7af7,
	0x91c77f, 0xb719bb, 0xa476d9, 0xadc168, 0x56e0b4, 0x2b705a, 0x15b82d, 0xf52612,
	0x7a9309, 0xc2b380, 0x6159c0, 0x30ace0, 0x185670, 0x0c2b38, 0x06159c, 0x030ace,
	0x018567, 0xff38b7, 0x80665f, 0xbfc92b, 0xa01e91, 0xaff54c, 0x57faa6, 0x2bfd53,
	0xea04ad, 0x8af852, 0x457c29, 0xdd4410, 0x6ea208, 0x375104, 0x1ba882, 0x0dd441,
	0xf91024, 0x7c8812, 0x3e4409, 0xe0d800, 0x706c00, 0x383600, 0x1c1b00, 0x0e0d80,
	0x0706c0, 0x038360, 0x01c1b0, 0x00e0d8, 0x00706c, 0x003836, 0x001c1b, 0xfff409,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
	0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000, 0x000000,
}

func checksum(msg []byte, bits int) uint32 {
	var crc uint32
	offset := 0
	if bits != 112 {
		offset = 112 - 56
	}
	for j := 0; j < bits; j++ {
		sByte := j / 8
		sBit := byte(j) % 8
		mask := byte(1) << (7 - sBit)
		if msg[sByte]&mask != 0 {
			crc ^= checksumTable[j+offset]
		}
	}
	return crc
}

func fixSingleBitErrors(msg []byte, bits int) int {
	msgBytes := bits / 8
	aux := make([]byte, msgBytes)
	for j := 0; j < bits; j++ {
		sByte := j / 8
		mask := byte(1) << (7 - (j % 8))
		copy(aux, msg)
		aux[sByte] ^= mask

		crc1 := uint32(aux[msgBytes-3])<<16 | uint32(aux[msgBytes-2])<<8 | uint32(aux[msgBytes-1])
		crc2 := checksum(aux, bits)
		if crc1 == crc2 {
			copy(msg, aux)
			return j
		}
	}
	return -1
}

func fixTwoBitsErrors(msg []byte, bits int) int {
	msgBytes := bits / 8
	aux := make([]byte, msgBytes)
	for j := 0; j < bits; j++ {
		byte1 := j / 8
		mask1 := byte(1) << (7 - (j % 8))
		for i := j + 1; i < bits; i++ {
			byte2 := i / 8
			mask2 := byte(1) << (7 - (i % 8))
			copy(aux, msg)
			aux[byte1] ^= mask1
			aux[byte2] ^= mask2

			crc1 := uint32(aux[msgBytes-3])<<16 | uint32(aux[msgBytes-2])<<8 | uint32(aux[msgBytes-1])
			crc2 := checksum(aux, bits)
			if crc1 == crc2 {
				copy(msg, aux)
				return j | (i << 8)
			}
		}
	}
	return -1
}

func (d *Decoder) addRecentlySeenICAO(addr uint32) {
	d.icaoCache.SetDefault(strconv.FormatUint(uint64(addr), 10), addr)
}

func (d *Decoder) icaoRecentlySeen(addr uint32) bool {
	_, found := d.icaoCache.Get(strconv.FormatUint(uint64(addr), 10))
	return found
}

// bruteForceAP recovers the ICAO address from an AP-xored downlink format
// by XORing the computed CRC back into the AP field and checking whether
// the result is a recently-seen address.
func (d *Decoder) bruteForceAP(msg []byte, msgtype, msgbits int) (uint32, error) {
	switch msgtype {
	case 0, 4, 5, 16, 20, 21, 24:
		aux := make([]byte, len(msg))
		copy(aux, msg)
		lastByte := (msgbits / 8) - 1

		crc := checksum(aux, msgbits)
		aux[lastByte] ^= byte(crc & 0xff)
		aux[lastByte-1] ^= byte((crc >> 8) & 0xff)
		aux[lastByte-2] ^= byte((crc >> 16) & 0xff)

		addr := uint32(aux[lastByte]) | uint32(aux[lastByte-1])<<8 | uint32(aux[lastByte-2])<<16
		if d.icaoRecentlySeen(addr) {
			return addr, nil
		}
	}
	return 0, fmt.Errorf("frame: can't recover ICAO address")
}

func decodeAC13Field(msg []byte) (altitude float64, unit int, ok bool) {
	mBit := msg[3] & (1 << 6)
	qBit := msg[3] & (1 << 4)

	if mBit != 0 {
		return 0, unitMeters, false
	}
	if qBit == 0 {
		return 0, unitFeet, false
	}
	n := int(msg[2]&31)<<6 | int((msg[3]&0x80)>>2) | int((msg[3]&0x20)>>1) | int(msg[3]&15)
	return float64(n*25 - 1000), unitFeet, true
}

func decodeAC12Field(msg []byte) (altitude float64, ok bool) {
	qBit := msg[5] & 1
	if qBit == 0 {
		return 0, false
	}
	n := int(msg[5]>>1)<<4 | int((msg[6]&0xF0)>>4)
	return float64(n*25 - 1000), true
}

// decodeGillhamSquawk extracts the interleaved A/B/C/D Gillham-coded
// squawk field from a DF4/5/20/21 frame and returns it as a 4-digit octal
// number expressed in decimal form (e.g. 0x1200 octal -> 1200).
func decodeGillhamSquawk(msg []byte) int {
	a := ((msg[3] & 0x80) >> 5) | ((msg[2] & 0x02) >> 0) | ((msg[2] & 0x08) >> 3)
	b := ((msg[3] & 0x02) << 1) | ((msg[3] & 0x08) >> 2) | ((msg[3] & 0x20) >> 5)
	c := ((msg[2] & 0x01) << 2) | ((msg[2] & 0x04) >> 1) | ((msg[2] & 0x10) >> 4)
	dd := ((msg[3] & 0x01) << 2) | ((msg[3] & 0x04) >> 1) | ((msg[3] & 0x10) >> 4)
	return int(a)*1000 + int(b)*100 + int(c)*10 + int(dd)
}

var aisCharset = []rune("?ABCDEFGHIJKLMNOPQRSTUVWXYZ????? ???????????????0123456789??????")

// Decode parses one raw Mode S frame (already demodulated into bytes) at
// the given system timestamp, returning the populated Message. source is
// the data source to stamp on the result (ADS-B for DF17/18, Mode S
// otherwise); callers with more context (MLAT, TIS-B) may override
// msg.Source after Decode returns.
func (d *Decoder) Decode(raw []byte, sysTimestampMs int64, source message.Source) (*message.Message, error) {
	msgtype := int(raw[0]) >> 3
	bits := messageLenByType(msgtype)
	bytes := bits / 8
	if len(raw) < bytes {
		return nil, fmt.Errorf("frame: short buffer for DF%d: need %d bytes, got %d", msgtype, bytes, len(raw))
	}

	buf := make([]byte, bytes)
	copy(buf, raw[:bytes])

	crcField := uint32(buf[bytes-3])<<16 | uint32(buf[bytes-2])<<8 | uint32(buf[bytes-1])
	computed := checksum(buf, bits)
	crcOK := crcField == computed
	errorBit := -1

	if !crcOK && d.fixErrors && (msgtype == 11 || msgtype == 17) {
		if eb := fixSingleBitErrors(buf, bits); eb != -1 {
			errorBit = eb
			computed = checksum(buf, bits)
			crcOK = true
		} else if d.aggressive && msgtype == 17 {
			if eb := fixTwoBitsErrors(buf, bits); eb != -1 {
				errorBit = eb
				computed = checksum(buf, bits)
				crcOK = true
			}
		}
	}

	var addr uint32
	if msgtype == 11 || msgtype == 17 || msgtype == 18 {
		addr = uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
		if crcOK && errorBit == -1 {
			d.addRecentlySeenICAO(addr)
		}
	} else {
		if recovered, err := d.bruteForceAP(buf, msgtype, bits); err == nil {
			addr = recovered
			crcOK = true
		} else {
			crcOK = false
		}
	}

	out := &message.Message{
		MsgType:        msgtype,
		Addr:           addr,
		Source:         source,
		SysTimestampMs: sysTimestampMs,
		CorrectedBits:  0,
	}
	if errorBit != -1 {
		out.CorrectedBits = 1
	}
	if crcOK {
		out.CRC = 0
	} else {
		out.CRC = computed ^ crcField
	}

	switch msgtype {
	case 0, 4, 16, 20:
		if alt, unit, ok := decodeAC13Field(buf); ok {
			out.AltitudeBaro = message.ValidFloat{Value: alt, Valid: true}
			out.AltitudeBaroUnitM = unit == unitMeters
		}
		if msgtype == 4 || msgtype == 20 {
			out.Squawk = message.ValidInt{Value: decodeGillhamSquawk(buf), Valid: true}
		}
	case 5, 21:
		out.Squawk = message.ValidInt{Value: decodeGillhamSquawk(buf), Valid: true}
	case 11:
		out.IID = int(buf[0]) & 7
	case 17, 18:
		d.decodeExtendedSquitter(buf, out)
	}

	return out, nil
}

func (d *Decoder) decodeExtendedSquitter(buf []byte, out *message.Message) {
	metype := int(buf[4]) >> 3
	mesub := int(buf[4]) & 7
	out.METype = metype

	switch {
	case metype >= 1 && metype <= 4:
		var sb [8]rune
		sb[0] = aisCharset[buf[5]>>2]
		sb[1] = aisCharset[((buf[5]&3)<<4)|(buf[6]>>4)]
		sb[2] = aisCharset[((buf[6]&15)<<2)|(buf[7]>>6)]
		sb[3] = aisCharset[buf[7]&63]
		sb[4] = aisCharset[buf[8]>>2]
		sb[5] = aisCharset[((buf[8]&3)<<4)|(buf[9]>>4)]
		sb[6] = aisCharset[((buf[9]&15)<<2)|(buf[10]>>6)]
		sb[7] = aisCharset[buf[10]&63]
		out.CallsignStr = string(sb[:])
		out.CallsignValid = true
		// Category set (A/B/C/D) comes from metype, category-within-set
		// from mesub; combined here into one dense value the way readsb's
		// emitter-category table is indexed.
		out.Category = (4-metype)*8 + mesub
		out.CategoryValid = true

	case metype >= 9 && metype <= 18:
		fflag := int(buf[6])&(1<<2) != 0
		if alt, ok := decodeAC12Field(buf); ok {
			out.AltitudeBaro = message.ValidFloat{Value: alt, Valid: true}
		}
		rawLat := ((int(buf[6]) & 3) << 15) | (int(buf[7]) << 7) | (int(buf[8]) >> 1)
		rawLon := ((int(buf[8]) & 1) << 16) | (int(buf[9]) << 8) | int(buf[10])
		out.CPRValid = true
		out.CPROdd = fflag
		out.CPRType = message.CPRAirborne
		out.CPRLat = rawLat
		out.CPRLon = rawLon

	case metype >= 5 && metype <= 8:
		fflag := int(buf[6])&(1<<2) != 0
		rawLat := ((int(buf[6]) & 3) << 15) | (int(buf[7]) << 7) | (int(buf[8]) >> 1)
		rawLon := ((int(buf[8]) & 1) << 16) | (int(buf[9]) << 8) | int(buf[10])
		out.CPRValid = true
		out.CPROdd = fflag
		out.CPRType = message.CPRSurface
		out.CPRLat = rawLat
		out.CPRLon = rawLon
		out.AirGround = message.AirGroundGround

	case metype == 19 && mesub >= 1 && mesub <= 2:
		ewDir := (int(buf[5]) & 4) >> 2
		ewVel := ((int(buf[5]) & 3) << 8) | int(buf[6])
		nsDir := (int(buf[7]) & 0x80) >> 7
		nsVel := ((int(buf[7]) & 0x7f) << 3) | ((int(buf[8]) & 0xe0) >> 5)
		vrSign := (int(buf[8]) & 0x8) >> 3
		vr := ((int(buf[8]) & 7) << 6) | ((int(buf[9]) & 0xfc) >> 2)

		ewv, nsv := float64(ewVel), float64(nsVel)
		if ewDir == 1 {
			ewv = -ewv
		}
		if nsDir == 1 {
			nsv = -nsv
		}
		speed := math.Sqrt(ewv*ewv + nsv*nsv)
		out.GS = message.GroundSpeed{V0: speed, V2: speed, Valid: true}

		if speed != 0 {
			heading := math.Atan2(ewv, nsv) * 180 / math.Pi
			if heading < 0 {
				heading += 360
			}
			out.Heading = message.ValidFloat{Value: heading, Valid: true}
			out.HeadingType = message.HeadingTrack
		}

		rate := float64((vr - 1) * 64)
		if vrSign == 1 {
			rate = -rate
		}
		out.BaroRate = message.ValidFloat{Value: rate, Valid: true}

	case metype == 19 && (mesub == 3 || mesub == 4):
		headingValid := int(buf[5])&(1<<2) != 0
		if headingValid {
			heading := (360.0 / 128) * float64(((int(buf[5])&3)<<5)|(int(buf[6])>>3))
			out.Heading = message.ValidFloat{Value: heading, Valid: true}
			out.HeadingType = message.HeadingMagneticOrTrue
		}
	}
}
