package fse

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	data := make([]byte, 500000)
	for i := range data {
		data[i] = byte(rng.Intn(50))
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithMaxBlockSize(64<<10))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data[:200000]); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data[200000:]); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
}

func TestWriterReaderSmallInput(t *testing.T) {
	data := []byte("short")
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestReaderRejectsBadMagicNumber(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0, 1, 2, 3, 4, 5}))
	if err == nil {
		t.Fatal("expected error for bad magic number")
	}
}

func TestReaderDetectsChecksumMismatch(t *testing.T) {
	data := []byte("checksum mismatch must be a distinct detectable error path")
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithChecksum(true))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	encoded := buf.Bytes()
	// Flip a byte inside the checksum block (the 8 bytes right before the
	// trailing EOS marker) so decoded content still parses but the stored
	// checksum no longer matches.
	encoded[len(encoded)-2] ^= 0xff

	r, err := NewReader(bytes.NewReader(encoded))
	if err != nil {
		t.Fatal(err)
	}
	_, err = io.ReadAll(r)
	if err != ErrChecksumMismatch {
		t.Fatalf("got %v, want ErrChecksumMismatch", err)
	}
}

func TestWriterReaderChecksumDisabled(t *testing.T) {
	data := []byte("no checksum requested for this stream")
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithChecksum(false))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(&buf, WithChecksum(false))
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}
