//nolint:revive // exported
package compress

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type CompressType = int8

const (
	CompressTypeNone    CompressType = 0
	CompressTypeGzip    CompressType = 1
	CompressTypeZstd    CompressType = 2
	CompressTypeBr      CompressType = 3
	CompressTypeDeflate CompressType = 4
)

var CompressLookupMap = map[string]CompressType{
	"":         CompressTypeNone,
	"identity": CompressTypeNone,
	"gzip":     CompressTypeGzip,
	"x-gzip":   CompressTypeGzip,
	"zstd":     CompressTypeZstd,
	"br":       CompressTypeBr,
	"deflate":  CompressTypeDeflate,
}

var (
	gzipWriterPool = sync.Pool{
		New: func() any {
			return gzip.NewWriter(io.Discard)
		},
	}
	brotliWriterPool = sync.Pool{
		New: func() any {
			return brotli.NewWriter(io.Discard)
		},
	}
)

var zstdEncoder, _ = zstd.NewWriter(nil)

var zstdDecoder, _ = zstd.NewReader(nil)

func Compress(data []byte, compressType CompressType) ([]byte, error) {
	var buf bytes.Buffer
	switch compressType {
	case CompressTypeNone:
		return data, nil
	case CompressTypeGzip:
		z := gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(z)

		z.Reset(&buf)
		if _, err := z.Write(data); err != nil {
			return nil, err
		}
		if err := z.Close(); err != nil {
			return nil, err
		}
	case CompressTypeZstd:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data))), nil
	case CompressTypeBr:
		w := brotliWriterPool.Get().(*brotli.Writer)
		defer brotliWriterPool.Put(w)

		w.Reset(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case CompressTypeDeflate:
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compressType)
	}
	return buf.Bytes(), nil
}

func Decompress(data []byte, compressType CompressType) ([]byte, error) {
	switch compressType {
	case CompressTypeNone:
		return data, nil
	case CompressTypeGzip:
		z, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = z.Close() }()
		return io.ReadAll(z)
	case CompressTypeZstd:
		return zstdDecoder.DecodeAll(data, nil)
	case CompressTypeBr:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	case CompressTypeDeflate:
		r := flate.NewReader(bytes.NewReader(data))
		defer func() { _ = r.Close() }()
		return io.ReadAll(r)
	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compressType)
	}
}

// DecompressWithContentEncodeStr decodes a body by its Content-Encoding header value.
func DecompressWithContentEncodeStr(data []byte, contentEncoding string) ([]byte, error) {
	compressType, ok := CompressLookupMap[strings.ToLower(strings.TrimSpace(contentEncoding))]
	if !ok {
		return nil, fmt.Errorf("%s encoding not supported", contentEncoding)
	}
	return Decompress(data, compressType)
}
