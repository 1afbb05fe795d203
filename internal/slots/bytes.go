package slots

import "fmt"

// BoundsError reports a byte window that does not fit in the buffer it is read from.
type BoundsError struct {
	Offset int
	Width  int
	Size   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("read %d bytes at offset %d exceeds buffer size %d", e.Width, e.Offset, e.Size)
}

// ReadBytes returns the window of width bytes that ends offset bytes before the
// end of buf. Offset zero selects the low-order bytes of a big-endian word.
// The returned slice aliases buf.
func ReadBytes(buf []byte, offset, width int) ([]byte, error) {
	size := len(buf)
	if offset < 0 || width < 0 || offset >= size || offset+width > size {
		return nil, &BoundsError{Offset: offset, Width: width, Size: size}
	}
	end := size - offset
	return buf[end-width : end], nil
}
