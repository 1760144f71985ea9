package console

import (
	"bufio"
	"io"

	"github.com/go-faster/errors"
	"rsc.io/qr"
)

// quietZone is the light border around the code, in modules.
const quietZone = 2

// WriteQR draws content as a QR code using half block characters, two
// modules per text line. Light modules are drawn filled so the code scans on
// dark terminals.
func WriteQR(w io.Writer, content string) error {
	code, err := qr.Encode(content, qr.L)
	if err != nil {
		return errors.Wrap(err, "encode qr")
	}

	light := func(x, y int) bool {
		x -= quietZone
		y -= quietZone
		if x < 0 || y < 0 || x >= code.Size || y >= code.Size {
			return true
		}
		return !code.Black(x, y)
	}

	size := code.Size + 2*quietZone
	bw := bufio.NewWriter(w)

	for y := 0; y < size; y += 2 {
		for x := 0; x < size; x++ {
			top := light(x, y)
			bottom := y+1 < size && light(x, y+1)

			switch {
			case top && bottom:
				_, _ = bw.WriteString("█")
			case top:
				_, _ = bw.WriteString("▀")
			case bottom:
				_, _ = bw.WriteString("▄")
			default:
				_ = bw.WriteByte(' ')
			}
		}
		_ = bw.WriteByte('\n')
	}

	return bw.Flush()
}
