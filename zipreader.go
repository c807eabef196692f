package axml

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/klauspost/compress/flate"
)

// ZipReader lists the entries of an APK. It first tries archive/zip; for
// the broken or deliberately crafted archives Android still installs it
// falls back to scanning for raw local file headers. A name can map to
// several entries in such archives, and all of them are kept.
type ZipReader struct {
	entries map[string][]zipEntry

	r     io.ReadSeeker
	owned *os.File
}

type zipEntry struct {
	file *zip.File // set when the central directory was readable

	// raw local-file-header fallback
	offset int64
	method uint16
}

// OpenZip opens the APK at path.
func OpenZip(path string) (*ZipReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	zr, err := OpenZipReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	zr.owned = f
	return zr, nil
}

// OpenZipReader reads the archive layout from r. It may seek r to
// arbitrary positions, and the returned ZipReader keeps seeking it on
// every ReadFile call.
func OpenZipReader(r io.ReadSeeker) (*ZipReader, error) {
	zr := &ZipReader{
		entries: make(map[string][]zipEntry),
		r:       r,
	}

	ra := &readAtWrapper{r}
	if zi, err := tryReadZip(ra); err == nil {
		for _, zf := range zi.File {
			if zf.Method != zip.Store && zf.Method != zip.Deflate {
				// Android treats unknown compression methods as deflate,
				// except for the entries it maps directly.
				switch zf.Name {
				case "AndroidManifest.xml", "resources.arsc":
					zf.Method = zip.Store
					zf.CompressedSize64 = zf.UncompressedSize64
				default:
					zf.Method = zip.Deflate
				}
			}
			name := path.Clean(zf.Name)
			zr.entries[name] = append(zr.entries[name], zipEntry{file: zf})
		}
		return zr, nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := zr.scanLocalHeaders(ra); err != nil {
		return nil, err
	}
	return zr, nil
}

// Close closes the underlying file when this reader owns one.
func (zr *ZipReader) Close() error {
	if zr.owned != nil {
		err := zr.owned.Close()
		zr.owned = nil
		return err
	}
	return nil
}

// Has reports whether the archive contains an entry with that name.
func (zr *ZipReader) Has(name string) bool {
	return len(zr.entries[name]) > 0
}

// ReadFile returns the contents of the named entry, capped at limit
// bytes. When the archive carries several entries under one name, the
// first readable one wins.
func (zr *ZipReader) ReadFile(name string, limit int64) ([]byte, error) {
	variants, err := zr.readVariants(name, limit)
	if err != nil {
		return nil, err
	}
	return variants[0], nil
}

// readVariants returns every readable copy of the named entry.
func (zr *ZipReader) readVariants(name string, limit int64) ([][]byte, error) {
	entries := zr.entries[name]
	if len(entries) == 0 {
		return nil, fmt.Errorf("no %s in archive", name)
	}

	var out [][]byte
	var lastErr error
	for _, e := range entries {
		data, err := zr.readEntry(e, limit)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, data)
	}
	if len(out) == 0 {
		return nil, lastErr
	}
	return out, nil
}

func (zr *ZipReader) readEntry(e zipEntry, limit int64) ([]byte, error) {
	if e.file != nil {
		rc, err := e.file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, limit))
	}

	if _, err := zr.r.Seek(e.offset, io.SeekStart); err != nil {
		return nil, err
	}

	var src io.Reader = zr.r
	if e.method != zip.Store {
		// Android treats every nonzero method as deflate.
		fr := flate.NewReader(zr.r)
		defer fr.Close()
		src = fr
	}

	data, err := io.ReadAll(io.LimitReader(src, limit))
	if err != nil && len(data) == 0 {
		return nil, err
	}
	// A short deflate stream can still hold a complete document; let the
	// decoder judge what it got.
	return data, nil
}

// scanLocalHeaders walks the archive for PK\x03\x04 local file headers,
// recording name, method and data offset for each. Duplicate names keep
// every occurrence, later ones first, which matches the entry Android's
// libziparchive would pick.
func (zr *ZipReader) scanLocalHeaders(f *readAtWrapper) error {
	var hdr [30]byte
	var off int64
	for {
		next, err := findLocalHeader(f, off)
		if err != nil || next == -1 {
			return err
		}

		if _, err := f.ReadAt(hdr[:], next); err != nil {
			return nil // truncated trailing header
		}

		method := le16(hdr[8:])
		nameLen := le16(hdr[26:])
		extraLen := le16(hdr[28:])

		nameBuf := make([]byte, nameLen)
		if _, err := f.ReadAt(nameBuf, next+30); err != nil {
			return nil
		}

		name := path.Clean(string(nameBuf))
		zr.entries[name] = append([]zipEntry{{
			offset: next + 30 + int64(nameLen) + int64(extraLen),
			method: method,
		}}, zr.entries[name]...)

		off = next + 4
	}
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

var zipLocalHeaderMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// findLocalHeader returns the offset of the next local file header at or
// after from, or -1.
func findLocalHeader(f *readAtWrapper, from int64) (int64, error) {
	buf := make([]byte, 64*1024)
	matched := 0
	off := from
	if _, err := f.Seek(from, io.SeekStart); err != nil {
		return -1, err
	}

	for {
		n, err := f.Read(buf)
		if err != nil && err != io.EOF {
			return -1, err
		}
		if n == 0 {
			return -1, nil
		}

		for i := 0; i < n; i++ {
			if buf[i] == zipLocalHeaderMagic[matched] {
				matched++
				if matched == len(zipLocalHeaderMagic) {
					return off + int64(i) - int64(len(zipLocalHeaderMagic)-1), nil
				}
			} else {
				matched = 0
			}
		}
		off += int64(n)
	}
}

func tryReadZip(f *readAtWrapper) (r *zip.Reader, err error) {
	defer func() {
		if pn := recover(); pn != nil {
			err = fmt.Errorf("%v", pn)
			r = nil
		}
	}()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	r, err = zip.NewReader(f, size)
	if err != nil {
		return nil, err
	}

	r.RegisterDecompressor(zip.Deflate, func(rd io.Reader) io.ReadCloser {
		return flate.NewReader(rd)
	})
	return r, nil
}

// readAtWrapper adapts an io.ReadSeeker to io.ReaderAt for archive/zip.
type readAtWrapper struct {
	io.ReadSeeker
}

func (wr *readAtWrapper) ReadAt(b []byte, off int64) (n int, err error) {
	if ra, ok := wr.ReadSeeker.(io.ReaderAt); ok {
		return ra.ReadAt(b, off)
	}

	oldpos, err := wr.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	if _, err = wr.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}

	n, err = io.ReadFull(wr, b)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err != nil {
		return n, err
	}

	_, err = wr.Seek(oldpos, io.SeekStart)
	return n, err
}
