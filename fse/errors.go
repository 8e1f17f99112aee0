package fse

import "errors"

var (
	// ErrInvalidParams is returned when a histogram or table_log cannot
	// produce a valid normalized frequency table (empty histogram, zero
	// total count, or table_log outside [1, 15]). EncodeStream also
	// returns it for a block whose normalized table gives a present
	// symbol zero weight, as when the block has more distinct symbols
	// than table_size.
	ErrInvalidParams = errors.New("fse: invalid parameters")

	// ErrBufferTooSmall is returned when a caller-supplied output buffer
	// cannot hold the declared result.
	ErrBufferTooSmall = errors.New("fse: buffer too small")

	// ErrOutOfBits is returned when a bit reader is asked to read past
	// the stream's declared bit length.
	ErrOutOfBits = errors.New("fse: read past end of bitstream")

	// ErrDecodeTruncated is returned when a frame or block ends before
	// the declared number of symbols or bytes has been produced.
	ErrDecodeTruncated = errors.New("fse: truncated input")

	// ErrDecodeInvalidState is returned when the decoder's terminal
	// state does not match the value the encoder is required to leave
	// behind (state == 0), indicating corrupted input.
	ErrDecodeInvalidState = errors.New("fse: invalid terminal decode state")

	// ErrUnsupportedOrdering is returned for an Ordering value other
	// than MSB or LSB.
	ErrUnsupportedOrdering = errors.New("fse: unsupported bit ordering")

	// ErrChecksumMismatch is returned by the streaming Reader when the
	// trailing xxhash checksum does not match the decoded bytes.
	ErrChecksumMismatch = errors.New("fse: checksum mismatch, stream corrupted")
)
