package gamefs

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// ReadWholeFile resolves qpath through the chain and returns its contents
// followed by a single zero byte, so len(data) is one more than the file
// length. An empty qpath is fatal.
func (gfs *GameFS) ReadWholeFile(qpath string) ([]byte, error) {
	if qpath == "" {
		return nil, fatalf(ErrEmptyPath, "read whole file")
	}

	h, size, err := gfs.OpenRead(qpath)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size+1)
	n, err := gfs.Read(h, buf[:size])
	if cerr := gfs.Close(h); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	buf[n] = 0
	return buf[:n+1], nil
}

// WriteWholeFile replaces qpath under the home root's current namespace
// with data.
func (gfs *GameFS) WriteWholeFile(qpath string, data []byte) error {
	h, err := gfs.OpenWrite(qpath)
	if err != nil {
		gfs.log.WithFields(logrus.Fields{"file": qpath, "error": err}).Warn("failed to open for writing")
		return err
	}
	return gfs.writeAndClose(h, data)
}

func (gfs *GameFS) writeAndClose(h Handle, data []byte) error {
	_, err := gfs.Write(h, data)
	return errors.Join(err, gfs.Close(h))
}

// FileLength resolves qpath and returns its length without keeping a
// handle open.
func (gfs *GameFS) FileLength(qpath string) (int64, error) {
	h, size, err := gfs.OpenRead(qpath)
	if err != nil {
		return 0, err
	}
	return size, gfs.Close(h)
}
