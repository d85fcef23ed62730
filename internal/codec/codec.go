// Package codec implements the byte transforms applied to transferred and
// archived files: zstd compression and AES-GCM encryption.
package codec

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/iudanet/journalsync/internal/crypto"
)

// ErrCorrupt is returned when compressed input cannot be decoded.
var ErrCorrupt = errors.New("corrupt compressed data")

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

// EncodeAll and DecodeAll are safe for concurrent use on shared instances.
func sharedEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
	})
	return encoder
}

func sharedDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return decoder
}

// Compress returns the zstd frame of data.
func Compress(data []byte) []byte {
	return sharedEncoder().EncodeAll(data, make([]byte, 0, len(data)/2+64))
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrCorrupt)
	}
	out, err := sharedDecoder().DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}

// CompressStream compresses src into dst and returns the number of
// uncompressed bytes read.
func CompressStream(dst io.Writer, src io.Reader) (int64, error) {
	zw, err := zstd.NewWriter(dst, zstd.WithZeroFrames(true))
	if err != nil {
		return 0, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	n, err := io.Copy(zw, src)
	if err != nil {
		zw.Close()
		return n, fmt.Errorf("failed to compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return n, fmt.Errorf("failed to flush zstd writer: %w", err)
	}
	return n, nil
}

// DecompressStream decompresses src into dst and returns the number of
// bytes written.
func DecompressStream(dst io.Writer, src io.Reader) (int64, error) {
	zr, err := zstd.NewReader(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	n, err := io.Copy(dst, zr)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return n, nil
}

// Options selects the transforms applied by Encode and Decode.
type Options struct {
	Key      []byte // encryption key; nil disables encryption
	Compress bool
}

// Encrypted reports whether the options enable encryption.
func (o Options) Encrypted() bool {
	return len(o.Key) > 0
}

// Encode compresses then encrypts data as selected by opts.
func Encode(data []byte, opts Options) ([]byte, error) {
	out := data
	if opts.Compress {
		out = Compress(out)
	}
	if opts.Encrypted() {
		var err error
		out, err = crypto.Encrypt(out, opts.Key)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Decode reverses Encode.
func Decode(data []byte, opts Options) ([]byte, error) {
	out := data
	if opts.Encrypted() {
		var err error
		out, err = crypto.Decrypt(out, opts.Key)
		if err != nil {
			return nil, err
		}
	}
	if opts.Compress {
		return Decompress(out)
	}
	return out, nil
}
