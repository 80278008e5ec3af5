package gamefs

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// discardChunk bounds the scratch buffer used to skip forward in archives.
const discardChunk = 64 * 1024

// acquireSlot looks up h and locks its slot. The caller must unlock.
func (gfs *GameFS) acquireSlot(h Handle) (*handleSlot, error) {
	if !gfs.Initialized() {
		return nil, fatalf(ErrNotInitialized, "handle %d", h)
	}
	slot, err := gfs.handles.get(h)
	if err != nil {
		return nil, err
	}
	slot.mu.Lock()
	return slot, nil
}

// Read fills buf from h and returns the number of bytes read. Reaching the
// end of data is not an error: the count is simply short of len(buf).
func (gfs *GameFS) Read(h Handle, buf []byte) (int, error) {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return 0, err
	}
	defer slot.mu.Unlock()
	return slot.read(buf)
}

func (s *handleSlot) read(buf []byte) (int, error) {
	if s.kind == backendArchived {
		return s.archived.read(buf)
	}
	return s.plain.read(buf)
}

// read retries a single zero-byte read; a second one ends the read short.
func (pf *plainFile) read(buf []byte) (int, error) {
	if pf.w != nil {
		if err := pf.w.Flush(); err != nil {
			return 0, fatalf(ErrReadFailed, "flush before read: %v", err)
		}
	}

	total := 0
	tried := false
	for total < len(buf) {
		n, err := pf.f.Read(buf[total:])
		if err != nil && !errors.Is(err, io.EOF) {
			return total, fatalf(ErrReadFailed, "%s: %v", pf.f.Name(), err)
		}
		if n == 0 {
			if tried {
				return total, nil
			}
			tried = true
			continue
		}
		total += n
	}
	return total, nil
}

func (af *archivedFile) read(buf []byte) (int, error) {
	n, err := io.ReadFull(af.cursor, buf)
	af.pos += int64(n)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, fatalf(ErrReadFailed, "archive entry: %v", err)
	}
	return n, nil
}

// Write writes p to h. A failed write is logged and reported as
// ErrWriteFailed with a count of 0; the handle stays usable.
func (gfs *GameFS) Write(h Handle, p []byte) (int, error) {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return 0, err
	}
	defer slot.mu.Unlock()
	return gfs.write(slot, p)
}

func (gfs *GameFS) write(slot *handleSlot, p []byte) (int, error) {
	if slot.kind != backendPlain || !slot.plain.writable {
		return 0, fmt.Errorf("%w: %s", ErrReadOnlyHandle, slot.name)
	}
	pf := slot.plain

	var dst io.Writer = pf.f
	if pf.w != nil {
		dst = pf.w
	}

	total := 0
	tried := false
	for total < len(p) {
		n, err := dst.Write(p[total:])
		if err != nil {
			gfs.log.WithFields(logrus.Fields{"file": slot.name, "error": err}).Warn("write failed")
			return 0, fmt.Errorf("%w: %s: %v", ErrWriteFailed, slot.name, err)
		}
		if n == 0 {
			if tried {
				gfs.log.WithField("file", slot.name).Warn("0 bytes written")
				return 0, fmt.Errorf("%w: %s", ErrWriteFailed, slot.name)
			}
			tried = true
			continue
		}
		total += n
	}

	if pf.sync && pf.w != nil {
		if err := pf.w.Flush(); err != nil {
			gfs.log.WithFields(logrus.Fields{"file": slot.name, "error": err}).Warn("flush failed")
			return 0, fmt.Errorf("%w: %s: %v", ErrWriteFailed, slot.name, err)
		}
	}
	return total, nil
}

// Printf formats according to format and writes the result to h.
func (gfs *GameFS) Printf(h Handle, format string, args ...any) (int, error) {
	return gfs.Write(h, []byte(fmt.Sprintf(format, args...)))
}

// ReadLine reads up to max-1 bytes from h, stopping after a newline. It
// returns io.EOF when no bytes remain.
func (gfs *GameFS) ReadLine(h Handle, max int) (string, error) {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return "", err
	}
	defer slot.mu.Unlock()

	line := make([]byte, 0, 128)
	var b [1]byte
	for len(line) < max-1 {
		n, err := slot.read(b[:])
		if err != nil {
			return string(line), err
		}
		if n == 0 {
			break
		}
		line = append(line, b[0])
		if b[0] == '\n' {
			break
		}
	}
	if len(line) == 0 && max > 1 {
		return "", io.EOF
	}
	return string(line), nil
}

// SetStreamed marks h as serving a streamed read.
func (gfs *GameFS) SetStreamed(h Handle, on bool) error {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return err
	}
	slot.streamed = on
	slot.mu.Unlock()
	return nil
}

// StreamRead reads like Read. The streamed flag is off for the duration of
// the read and restored afterwards.
func (gfs *GameFS) StreamRead(h Handle, buf []byte) (int, error) {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return 0, err
	}
	defer slot.mu.Unlock()

	streamed := slot.streamed
	slot.streamed = false
	n, err := slot.read(buf)
	slot.streamed = streamed
	return n, err
}

// Seek moves the position of h and returns the new offset. Archived handles
// only move forward: io.SeekEnd and negative offsets are fatal for them.
func (gfs *GameFS) Seek(h Handle, offset int64, whence int) (int64, error) {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return 0, err
	}
	defer slot.mu.Unlock()

	streamed := slot.streamed
	slot.streamed = false
	defer func() { slot.streamed = streamed }()

	if slot.kind == backendArchived {
		return slot.archived.seek(offset, whence)
	}
	pf := slot.plain
	if pf.w != nil {
		if err := pf.w.Flush(); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrWriteFailed, slot.name, err)
		}
	}
	return pf.f.Seek(offset, whence)
}

func (af *archivedFile) seek(offset int64, whence int) (int64, error) {
	if offset < 0 {
		return af.pos, fatalf(ErrUnsupportedSeek, "negative offset %d", offset)
	}
	switch whence {
	case io.SeekStart:
		if err := af.cursor.SeekToBase(); err != nil {
			return af.pos, fatalf(ErrReadFailed, "reopen entry at %d: %v", af.base, err)
		}
		af.pos = 0
	case io.SeekCurrent:
	default:
		return af.pos, fatalf(ErrUnsupportedSeek, "whence %d", whence)
	}
	err := af.discard(offset)
	return af.pos, err
}

// discard reads and drops n bytes. Running out of data stops early.
func (af *archivedFile) discard(n int64) error {
	buf := make([]byte, min(n, discardChunk))
	for n > 0 {
		got, err := af.read(buf[:min(n, int64(len(buf)))])
		if err != nil {
			return err
		}
		if got == 0 {
			return nil
		}
		n -= int64(got)
	}
	return nil
}

// Tell returns the current position of h.
func (gfs *GameFS) Tell(h Handle) (int64, error) {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return 0, err
	}
	defer slot.mu.Unlock()

	if slot.kind == backendArchived {
		return slot.archived.pos, nil
	}
	pf := slot.plain
	pos, err := pf.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fatalf(ErrReadFailed, "tell %s: %v", slot.name, err)
	}
	if pf.w != nil {
		pos += int64(pf.w.Buffered())
	}
	return pos, nil
}

// Length returns the current size of the file behind h. For archived
// handles it is the entry length captured when the handle was opened.
func (gfs *GameFS) Length(h Handle) (int64, error) {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return 0, err
	}
	defer slot.mu.Unlock()

	if slot.kind == backendArchived {
		return slot.archived.size, nil
	}
	pf := slot.plain
	if pf.w != nil {
		if err := pf.w.Flush(); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrWriteFailed, slot.name, err)
		}
	}
	pos, err := pf.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fatalf(ErrReadFailed, "length %s: %v", slot.name, err)
	}
	end, err := pf.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fatalf(ErrReadFailed, "length %s: %v", slot.name, err)
	}
	if _, err := pf.f.Seek(pos, io.SeekStart); err != nil {
		return 0, fatalf(ErrReadFailed, "length %s: %v", slot.name, err)
	}
	return end, nil
}

// Flush writes any buffered data of h to the host file.
func (gfs *GameFS) Flush(h Handle) error {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return err
	}
	defer slot.mu.Unlock()

	if slot.kind == backendPlain && slot.plain.w != nil {
		if err := slot.plain.w.Flush(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWriteFailed, slot.name, err)
		}
	}
	return nil
}

// ForceUnbuffered flushes h and sends every later write straight to the
// host file.
func (gfs *GameFS) ForceUnbuffered(h Handle) error {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return err
	}
	defer slot.mu.Unlock()

	if slot.kind != backendPlain || slot.plain.w == nil {
		return nil
	}
	if err := slot.plain.w.Flush(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, slot.name, err)
	}
	slot.plain.w = nil
	return nil
}

// Close releases h. The slot is cleared even when closing the backend
// fails. Closing a handle twice is fatal.
func (gfs *GameFS) Close(h Handle) error {
	slot, err := gfs.handles.release(h)
	if err != nil {
		return err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return closeSlot(slot)
}

// closeSlot closes the backend bound to slot.
func closeSlot(slot *handleSlot) error {
	var errs []error
	switch slot.kind {
	case backendPlain:
		pf := slot.plain
		if pf.w != nil {
			errs = append(errs, pf.w.Flush())
		}
		if pf.locked {
			errs = append(errs, unlockFile(pf.f))
		}
		errs = append(errs, pf.f.Close())
	case backendArchived:
		af := slot.archived
		errs = append(errs, af.cursor.Close())
		if af.unique() {
			errs = append(errs, af.own.Close())
		} else {
			errs = append(errs, af.archive.release())
		}
	}
	slot.plain = nil
	slot.archived = nil
	return errors.Join(errs...)
}

// Source returns the host path of the file or archive serving h and whether
// it is an archive.
func (gfs *GameFS) Source(h Handle) (hostPath string, archived bool, err error) {
	slot, err := gfs.acquireSlot(h)
	if err != nil {
		return "", false, err
	}
	defer slot.mu.Unlock()
	return slot.source, slot.kind == backendArchived, nil
}
