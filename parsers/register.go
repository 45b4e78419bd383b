// Package parsers is a side-effect import point: importing it (or any
// of its subpackages) registers every sample format parser with the
// default binfield registry at init() time, the same pattern
// canboat.LoadCANBoatSchema used for describing a format as data loaded
// once at startup.
package parsers

import (
	_ "github.com/mgnsk/binfield/parsers/bmp"
	_ "github.com/mgnsk/binfield/parsers/gzip"
	_ "github.com/mgnsk/binfield/parsers/iso9660"
	_ "github.com/mgnsk/binfield/parsers/ogg"
	_ "github.com/mgnsk/binfield/parsers/tar"
)
