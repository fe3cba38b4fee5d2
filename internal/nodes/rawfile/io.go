package rawfile

import (
	"errors"
	"io"
	"syscall"
)

const maxEmptyReads = 100

// readFull reads until buf is full or the reader reports EOF. EINTR is
// retried and never surfaced; EOF is not an error.
func readFull(r io.Reader, buf []byte) (int, error) {
	count := 0
	empty := 0
	for count < len(buf) {
		n, err := r.Read(buf[count:])
		count += n
		switch {
		case err == nil:
			if n > 0 {
				empty = 0
				continue
			}
			empty++
			if empty >= maxEmptyReads {
				return count, io.ErrNoProgress
			}
		case errors.Is(err, io.EOF):
			return count, nil
		case errors.Is(err, syscall.EINTR):
		default:
			return count, err
		}
	}
	return count, nil
}

// writeAll writes all of buf, retrying EINTR.
func writeAll(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		buf = buf[n:]
		switch {
		case err == nil:
			if n == 0 {
				return io.ErrShortWrite
			}
		case errors.Is(err, syscall.EINTR):
		default:
			return err
		}
	}
	return nil
}
