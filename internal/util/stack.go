package util

import (
	"bytes"
	"runtime"
	"strconv"
)

// GoroutineID returns the runtime identifier of the calling goroutine, parsed
// from the header line of its stack dump ("goroutine 42 [running]:").
func GoroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]

	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i > 0 {
		buf = buf[:i]
	}

	id, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		return 0
	}

	return id
}

// GoroutineStack returns the stack dump of the goroutine with the given id,
// or "" if it no longer exists.
func GoroutineStack(id uint64) string {
	if id == 0 {
		return ""
	}

	size := 1 << 16
	for {
		buf := make([]byte, size)
		n := runtime.Stack(buf, true)

		if n < size || size >= 1<<24 {
			return findGoroutine(buf[:n], id)
		}

		size *= 2
	}
}

func findGoroutine(dump []byte, id uint64) string {
	header := []byte("goroutine " + strconv.FormatUint(id, 10) + " [")

	for _, block := range bytes.Split(dump, []byte("\n\n")) {
		if bytes.HasPrefix(block, header) {
			return string(bytes.TrimSpace(block))
		}
	}

	return ""
}
