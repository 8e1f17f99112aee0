package fse

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/OneOfOne/xxhash"
)

// Streaming convenience layer over EncodeStream/DecodeStream: a magic
// number, bufio-buffered I/O, and an optional trailing xxhash-64
// checksum over the decoded byte stream. This wraps the canonical frame
// format — which has no magic number or checksum of its
// own — rather than changing it.
const (
	streamMagicNumber = 0xF5EA0415

	streamBlockData      = 0
	streamBlockChecksum  = 1
	streamBlockEOS       = 2
	streamBlockSizeLimit = 1 << 30
)

// WriterOption configures a Writer.
type WriterOption func(*streamOptions)

type streamOptions struct {
	maxBlockSize uint32
	withChecksum bool
	encodeOpts   []EncodeOption
	decodeOpts   []DecodeOption
}

func defaultStreamOptions() streamOptions {
	return streamOptions{
		maxBlockSize: 256 << 10,
		withChecksum: true,
	}
}

// WithMaxBlockSize sets how many raw bytes are buffered before being
// flushed through EncodeStream as one frame.
func WithMaxBlockSize(n uint32) WriterOption {
	return func(o *streamOptions) {
		o.maxBlockSize = n
	}
}

// WithChecksum toggles the trailing xxhash-64 checksum over the decoded
// byte stream.
func WithChecksum(b bool) WriterOption {
	return func(o *streamOptions) {
		o.withChecksum = b
	}
}

// WithStreamEncodeOptions forwards options to every internal
// EncodeStream call a Writer makes.
func WithStreamEncodeOptions(opts ...EncodeOption) WriterOption {
	return func(o *streamOptions) {
		o.encodeOpts = append(o.encodeOpts, opts...)
	}
}

// WithStreamDecodeOptions forwards options to every internal
// DecodeStream call a Reader makes.
func WithStreamDecodeOptions(opts ...DecodeOption) WriterOption {
	return func(o *streamOptions) {
		o.decodeOpts = append(o.decodeOpts, opts...)
	}
}

// Writer buffers writes and periodically flushes them through
// EncodeStream as self-contained frames, each prefixed with a length so
// a Reader can tell frame boundaries apart from the checksum/EOS markers
// that follow the last one.
type Writer struct {
	bw  *bufio.Writer
	o   streamOptions
	buf []byte
	h   hash.Hash64
	err error
}

// NewWriter wraps w. Close must be called to flush buffered bytes and
// write the trailing checksum/EOS markers.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	wr := &Writer{o: defaultStreamOptions()}
	for _, opt := range opts {
		opt(&wr.o)
	}
	if wr.o.maxBlockSize == 0 || wr.o.maxBlockSize > streamBlockSizeLimit {
		return nil, fmt.Errorf("fse: max block size must be in (0, %d]", streamBlockSizeLimit)
	}
	wr.bw = bufio.NewWriter(w)
	wr.h = xxhash.New64()
	var hdr [4 + binary.MaxVarintLen32]byte
	binary.LittleEndian.PutUint32(hdr[:4], streamMagicNumber)
	n := binary.PutUvarint(hdr[4:], uint64(wr.o.maxBlockSize))
	if _, err := wr.bw.Write(hdr[:4+n]); err != nil {
		return nil, err
	}
	return wr, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.o.withChecksum {
		w.h.Write(p)
	}
	w.buf = append(w.buf, p...)
	for uint32(len(w.buf)) >= w.o.maxBlockSize {
		if err := w.flushBlock(w.buf[:w.o.maxBlockSize]); err != nil {
			w.err = err
			return 0, err
		}
		w.buf = append(w.buf[:0], w.buf[w.o.maxBlockSize:]...)
	}
	return len(p), nil
}

func (w *Writer) flushBlock(data []byte) error {
	enc, err := EncodeStream(data, w.o.encodeOpts...)
	if err != nil {
		return err
	}
	var hdr [1 + binary.MaxVarintLen64]byte
	hdr[0] = streamBlockData
	n := binary.PutUvarint(hdr[1:], uint64(len(enc)))
	if _, err := w.bw.Write(hdr[:1+n]); err != nil {
		return err
	}
	_, err = w.bw.Write(enc)
	return err
}

// Close flushes any buffered bytes, writes the checksum block (if
// enabled), writes the end-of-stream marker, and flushes the underlying
// bufio.Writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if len(w.buf) > 0 {
		if err := w.flushBlock(w.buf); err != nil {
			return err
		}
		w.buf = w.buf[:0]
	}
	if w.o.withChecksum {
		var tmp [1 + 8]byte
		tmp[0] = streamBlockChecksum
		binary.LittleEndian.PutUint64(tmp[1:], w.h.Sum64())
		if _, err := w.bw.Write(tmp[:]); err != nil {
			return err
		}
	}
	if _, err := w.bw.Write([]byte{streamBlockEOS}); err != nil {
		return err
	}
	return w.bw.Flush()
}

// Reader reads a stream produced by Writer.
type Reader struct {
	br           *bufio.Reader
	o            streamOptions
	maxBlockSize uint64
	out          []byte
	read         int
	h            hash.Hash64
	eof          bool
}

// NewReader wraps rd, which must begin with the magic number NewWriter
// writes.
func NewReader(rd io.Reader, opts ...WriterOption) (*Reader, error) {
	r := &Reader{o: defaultStreamOptions(), h: xxhash.New64()}
	for _, opt := range opts {
		opt(&r.o)
	}
	r.br = bufio.NewReader(rd)
	var tmp [4]byte
	if _, err := io.ReadFull(r.br, tmp[:]); err != nil {
		return nil, err
	}
	if binary.LittleEndian.Uint32(tmp[:]) != streamMagicNumber {
		return nil, errors.New("fse: magic number mismatch")
	}
	n, err := binary.ReadUvarint(r.br)
	if err != nil {
		return nil, err
	}
	if n == 0 || n > streamBlockSizeLimit {
		return nil, fmt.Errorf("fse: invalid stream max block size %d", n)
	}
	r.maxBlockSize = n
	return r, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	read := 0
	for read < len(p) {
		if r.read >= len(r.out) {
			if r.eof {
				return read, io.EOF
			}
			if err := r.decodeNext(); err != nil {
				if err == io.EOF {
					r.eof = true
					return read, nil
				}
				return read, err
			}
		}
		n := copy(p[read:], r.out[r.read:])
		r.read += n
		read += n
	}
	return read, nil
}

func (r *Reader) decodeNext() error {
	blockType, err := r.br.ReadByte()
	if err != nil {
		return err
	}
	r.read = 0
	switch blockType {
	case streamBlockData:
		size, err := binary.ReadUvarint(r.br)
		if err != nil {
			return err
		}
		if size > streamBlockSizeLimit {
			return fmt.Errorf("fse: invalid frame size %d", size)
		}
		enc := make([]byte, size)
		if _, err := io.ReadFull(r.br, enc); err != nil {
			return err
		}
		out, err := DecodeStream(enc, r.o.decodeOpts...)
		if err != nil {
			return err
		}
		r.out = out
		if r.o.withChecksum {
			r.h.Write(out)
		}
		return nil
	case streamBlockChecksum:
		var tmp [8]byte
		if _, err := io.ReadFull(r.br, tmp[:]); err != nil {
			return err
		}
		if r.o.withChecksum && binary.LittleEndian.Uint64(tmp[:]) != r.h.Sum64() {
			return ErrChecksumMismatch
		}
		r.out = r.out[:0]
		return nil
	case streamBlockEOS:
		r.out = r.out[:0]
		return io.EOF
	default:
		return fmt.Errorf("fse: unknown block type %d", blockType)
	}
}
