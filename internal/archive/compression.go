package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz/lzma"

	"github.com/alexisbeaulieu97/pluginoven/internal/config"
)

// Zip method identifiers beyond the two archive/zip defines.
const (
	MethodBzip2 uint16 = 12
	MethodLZMA  uint16 = 14
)

// flagLZMAEOS marks an LZMA entry terminated by an end-of-stream marker.
const flagLZMAEOS uint16 = 0x2

const (
	lzmaVersionMajor = 9
	lzmaVersionMinor = 20
	lzmaPropsLen     = 5
	// classic .lzma header: properties, dictionary size, uncompressed size
	lzmaClassicHeaderLen = lzmaPropsLen + 8
)

// method describes how entries are written for one compression choice.
type method struct {
	id     uint16
	flags  uint16
	comp   zip.Compressor
	decomp zip.Decompressor
}

func methodFor(c config.Compression) (method, error) {
	switch c {
	case config.CompressionNone, "":
		return method{id: zip.Store}, nil
	case config.CompressionZlib:
		return method{id: zip.Deflate, comp: newDeflateWriter, decomp: newDeflateReader}, nil
	case config.CompressionBzip2:
		return method{id: MethodBzip2, comp: newBzip2Writer, decomp: newBzip2Reader}, nil
	case config.CompressionLZMA:
		return method{id: MethodLZMA, flags: flagLZMAEOS, comp: newLZMAWriter, decomp: newLZMAReader}, nil
	default:
		return method{}, fmt.Errorf("unsupported compression %q", c)
	}
}

// registerDecompressors lets r read every method the builder can produce.
func registerDecompressors(r *zip.Reader) {
	r.RegisterDecompressor(zip.Deflate, newDeflateReader)
	r.RegisterDecompressor(MethodBzip2, newBzip2Reader)
	r.RegisterDecompressor(MethodLZMA, newLZMAReader)
}

func newDeflateWriter(w io.Writer) (io.WriteCloser, error) {
	return flate.NewWriter(w, flate.BestCompression)
}

func newDeflateReader(r io.Reader) io.ReadCloser {
	return flate.NewReader(r)
}

func newBzip2Writer(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
}

func newBzip2Reader(r io.Reader) io.ReadCloser {
	zr, err := bzip2.NewReader(r, nil)
	if err != nil {
		return errReader{err}
	}
	return zr
}

// lzmaWriter emits the zip flavour of an LZMA stream: a four byte version and
// properties-size prefix, the five properties bytes, then the raw stream with
// an end marker. The encoder's own 13 byte header is rewritten on the fly.
type lzmaWriter struct {
	dst    io.Writer
	header []byte
	enc    *lzma.Writer
}

func newLZMAWriter(w io.Writer) (io.WriteCloser, error) {
	lw := &lzmaWriter{dst: w}
	enc, err := lzma.WriterConfig{SizeInHeader: false, EOSMarker: true}.NewWriter(headerSink{lw})
	if err != nil {
		return nil, err
	}
	lw.enc = enc
	return lw, nil
}

func (w *lzmaWriter) Write(p []byte) (int, error) {
	return w.enc.Write(p)
}

func (w *lzmaWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		return err
	}
	if len(w.header) < lzmaClassicHeaderLen {
		return errors.New("lzma: encoder produced a truncated header")
	}
	return nil
}

// headerSink receives encoder output, swapping the classic header for the zip one.
type headerSink struct {
	w *lzmaWriter
}

func (s headerSink) Write(p []byte) (int, error) {
	w := s.w
	n := len(p)
	if missing := lzmaClassicHeaderLen - len(w.header); missing > 0 {
		take := min(missing, len(p))
		w.header = append(w.header, p[:take]...)
		p = p[take:]
		if len(w.header) < lzmaClassicHeaderLen {
			return n, nil
		}
		prefix := []byte{lzmaVersionMajor, lzmaVersionMinor, lzmaPropsLen, 0}
		prefix = append(prefix, w.header[:lzmaPropsLen]...)
		if _, err := w.dst.Write(prefix); err != nil {
			return 0, err
		}
	}
	if len(p) == 0 {
		return n, nil
	}
	if _, err := w.dst.Write(p); err != nil {
		return 0, err
	}
	return n, nil
}

// newLZMAReader rebuilds a classic header with an unknown size in front of the
// zip payload so the stream decoder can read it.
func newLZMAReader(r io.Reader) io.ReadCloser {
	prefix := make([]byte, 4+lzmaPropsLen)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return errReader{fmt.Errorf("lzma: read zip header: %w", err)}
	}
	if int(prefix[2]) != lzmaPropsLen || prefix[3] != 0 {
		return errReader{fmt.Errorf("lzma: unexpected properties size %d", prefix[2])}
	}

	header := make([]byte, 0, lzmaClassicHeaderLen)
	header = append(header, prefix[4:]...)
	header = append(header, bytes.Repeat([]byte{0xff}, 8)...)

	zr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header), r))
	if err != nil {
		return errReader{err}
	}
	return io.NopCloser(zr)
}

type errReader struct {
	err error
}

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
func (e errReader) Close() error             { return nil }
