package binfield

import (
	"fmt"
	"time"
)

// This file ports hachoir's text_handler.py / tools.py numeric display
// cores to Go, literally, so the test vectors spec.md §8 quotes from
// their docstrings hold unchanged. The timestamp, file size and
// hexadecimal functions are also exposed as Handlers so they can be
// attached to a Field via AttachHandler; HumanBitRate and
// HumanFrequency have no Handler adapter.

// TimestampUnix renders seconds since 1970-01-01 UTC. The valid range
// is [0, 2147483647]; out of range renders an explanatory fallback
// instead of failing.
func TimestampUnix(seconds int64) string {
	if seconds < 0 || seconds > 2147483647 {
		return fmt.Sprintf("invalid UNIX timestamp (%d)", seconds)
	}
	return time.Unix(seconds, 0).UTC().Format("2006-01-02 15:04:05")
}

// TimestampUnixHandler adapts TimestampUnix to the Handler contract.
func TimestampUnixHandler(f Field) (string, error) {
	v, err := f.Value()
	if err != nil {
		return "", err
	}
	n, ok := toInt64(v)
	if !ok {
		return "", fmt.Errorf("binfield: TimestampUnixHandler: unexpected value type %T", v)
	}
	return TimestampUnix(n), nil
}

// win64Epoch100nsOffset is the number of 100ns ticks between the
// Windows FILETIME epoch (1601-01-01) and the UNIX epoch (1970-01-01).
const win64Epoch100nsOffset = 116444736000000000

// TimestampWin64 renders a Windows FILETIME: 100-ns ticks since
// 1601-01-01 UTC. Zero renders "(not set)".
func TimestampWin64(ticks uint64) string {
	if ticks == 0 {
		return "(not set)"
	}
	total := int64(ticks) - win64Epoch100nsOffset
	sec := total / 10_000_000
	rem := total % 10_000_000
	if rem < 0 {
		rem += 10_000_000
		sec--
	}
	t := time.Unix(sec, rem*100).UTC()
	return t.Format("2006-01-02 15:04:05.000000")
}

// TimestampWin64Handler adapts TimestampWin64 to the Handler contract.
func TimestampWin64Handler(f Field) (string, error) {
	v, err := f.Value()
	if err != nil {
		return "", err
	}
	n, ok := toUint64(v)
	if !ok {
		return "", fmt.Errorf("binfield: TimestampWin64Handler: unexpected value type %T", v)
	}
	return TimestampWin64(n), nil
}

var macEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// TimestampMac renders seconds since 1904-01-01 UTC, valid for any
// uint32 value.
func TimestampMac(seconds uint32) string {
	return macEpoch.Add(time.Duration(seconds) * time.Second).Format("2006-01-02 15:04:05")
}

// TimestampMacHandler adapts TimestampMac to the Handler contract.
func TimestampMacHandler(f Field) (string, error) {
	v, err := f.Value()
	if err != nil {
		return "", err
	}
	n, ok := toUint64(v)
	if !ok || n > 0xFFFFFFFF {
		return "", fmt.Errorf("binfield: TimestampMacHandler: value out of uint32 range: %v", v)
	}
	return TimestampMac(uint32(n)), nil
}

// TimestampMSDOS decodes a 32-bit packed MS-DOS date/time: second/2 (5
// bits), minute (6), hour (5), day (5), month (4), year+1980 (7),
// packed MSB first in that order. An invalid composite date renders an
// explanatory fallback.
func TimestampMSDOS(raw uint32) string {
	sec2 := (raw >> 27) & 0x1F
	minute := (raw >> 21) & 0x3F
	hour := (raw >> 16) & 0x1F
	day := (raw >> 11) & 0x1F
	month := (raw >> 7) & 0xF
	year := raw & 0x7F

	sec := sec2 * 2
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return fmt.Sprintf("invalid msdos datetime (%d)", raw)
	}
	y := int(year) + 1980
	m := time.Month(month)
	t := time.Date(y, m, int(day), int(hour), int(minute), int(sec), 0, time.UTC)
	if t.Month() != m || t.Day() != int(day) {
		return fmt.Sprintf("invalid msdos datetime (%d)", raw)
	}
	return t.Format("2006-01-02 15:04:05")
}

// TimestampMSDOSHandler adapts TimestampMSDOS to the Handler contract.
func TimestampMSDOSHandler(f Field) (string, error) {
	v, err := f.Value()
	if err != nil {
		return "", err
	}
	n, ok := toUint64(v)
	if !ok || n > 0xFFFFFFFF {
		return "", fmt.Errorf("binfield: TimestampMSDOSHandler: value out of uint32 range: %v", v)
	}
	return TimestampMSDOS(uint32(n)), nil
}

// HumanFilesize renders a byte count with binary units (KB = 1024),
// one decimal place past 10000 bytes.
func HumanFilesize(size int64) string {
	if size < 10000 {
		if size == 1 {
			return "1 byte"
		}
		return fmt.Sprintf("%d bytes", size)
	}
	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	f := float64(size)
	unit := units[0]
	for _, u := range units {
		f /= 1024.0
		unit = u
		if f < 1000 {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", f, unit)
}

// HumanFilesizeHandler adapts HumanFilesize to the Handler contract.
func HumanFilesizeHandler(f Field) (string, error) {
	v, err := f.Value()
	if err != nil {
		return "", err
	}
	n, ok := toInt64(v)
	if !ok {
		return "", fmt.Errorf("binfield: HumanFilesizeHandler: unexpected value type %T", v)
	}
	return HumanFilesize(n), nil
}

func humanDecimalUnit(value float64, unit string) string {
	if value == 0 {
		return "0 " + unit
	}
	prefixes := []string{"", "K", "M", "G", "T", "P", "E"}
	i := 0
	for value >= 1000 && i < len(prefixes)-1 {
		value /= 1000
		i++
	}
	return fmt.Sprintf("%.1f %s%s", value, prefixes[i], unit)
}

// HumanBitRate renders a bits-per-second rate with decimal units
// (Kbit = 1000), one decimal place.
func HumanBitRate(bitsPerSec float64) string {
	return humanDecimalUnit(bitsPerSec, "bit/sec")
}

// HumanFrequency renders a Hz rate with decimal units (KHz = 1000),
// one decimal place.
func HumanFrequency(hz float64) string {
	return humanDecimalUnit(hz, "Hz")
}

// Hexadecimal renders value zero-padded to ceil(sizeBits/4) nibbles,
// lower case, 0x-prefixed.
func Hexadecimal(value uint64, sizeBits uint) string {
	nibbles := int((sizeBits + 3) / 4)
	return fmt.Sprintf("0x%0*x", nibbles, value)
}

// HexadecimalHandler adapts Hexadecimal to the Handler contract,
// reading the field's own size to determine the nibble count.
func HexadecimalHandler(f Field) (string, error) {
	v, err := f.Value()
	if err != nil {
		return "", err
	}
	n, ok := toUint64(v)
	if !ok {
		return "", fmt.Errorf("binfield: HexadecimalHandler: unexpected value type %T", v)
	}
	return Hexadecimal(n, uint(f.Size())), nil
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case int64:
		return uint64(n), true
	case uint64:
		return n, true
	case int:
		return uint64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
