package binfield_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mgnsk/binfield"
)

func TestTimestampUnix(t *testing.T) {
	assert.Equal(t, "1970-01-01 00:00:00", binfield.TimestampUnix(0))
	assert.Equal(t, "2006-07-29 12:20:44", binfield.TimestampUnix(1154175644))
	assert.Equal(t, "invalid UNIX timestamp (-1)", binfield.TimestampUnix(-1))
	assert.Equal(t, "invalid UNIX timestamp (2147483650)", binfield.TimestampUnix(2147483650))
}

func TestTimestampWin64(t *testing.T) {
	assert.Equal(t, "(not set)", binfield.TimestampWin64(0))
	assert.Equal(t, "2006-02-10 12:45:56.671000", binfield.TimestampWin64(127840491566710000))
}

func TestHumanFilesize(t *testing.T) {
	assert.Equal(t, "1 byte", binfield.HumanFilesize(1))
	assert.Equal(t, "790 bytes", binfield.HumanFilesize(790))
	assert.Equal(t, "250.9 KB", binfield.HumanFilesize(256960))
}

func TestHexadecimal(t *testing.T) {
	assert.Equal(t, "0x019c", binfield.Hexadecimal(412, 16))
	assert.Equal(t, "0x00000000", binfield.Hexadecimal(0, 32))
}

func TestTimestampMSDOSYearBase(t *testing.T) {
	// year field 0 -> 1980, month=1, day=1, rest zero.
	var raw uint32
	raw |= 1 << 7  // month = 1
	raw |= 1 << 11 // day = 1
	got := binfield.TimestampMSDOS(raw)
	assert.Equal(t, "1980-01-01 00:00:00", got)
}

func TestTimestampMSDOSInvalid(t *testing.T) {
	var raw uint32
	raw |= 13 << 7 // month = 13, invalid
	got := binfield.TimestampMSDOS(raw)
	assert.Contains(t, got, "invalid msdos datetime")
}
