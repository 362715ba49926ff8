package compress_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/jsonflow/pkg/compress"
)

func TestRoundTrip(t *testing.T) {
	body := bytes.Repeat([]byte(`{"items":[{"a":1},{"a":2}]}`), 64)

	for name, ct := range map[string]compress.CompressType{
		"none":    compress.CompressTypeNone,
		"gzip":    compress.CompressTypeGzip,
		"zstd":    compress.CompressTypeZstd,
		"br":      compress.CompressTypeBr,
		"deflate": compress.CompressTypeDeflate,
	} {
		t.Run(name, func(t *testing.T) {
			packed, err := compress.Compress(body, ct)
			require.NoError(t, err)
			require.NotEmpty(t, packed)

			got, err := compress.Decompress(packed, ct)
			require.NoError(t, err)
			require.Equal(t, body, got)
		})
	}
}

func TestDecompressWithContentEncodeStr(t *testing.T) {
	body := []byte(`{"ok":true}`)
	packed, err := compress.Compress(body, compress.CompressTypeBr)
	require.NoError(t, err)

	got, err := compress.DecompressWithContentEncodeStr(packed, " BR ")
	require.NoError(t, err)
	require.Equal(t, body, got)

	got, err = compress.DecompressWithContentEncodeStr(body, "identity")
	require.NoError(t, err)
	require.Equal(t, body, got)

	_, err = compress.DecompressWithContentEncodeStr(body, "lzma")
	require.Error(t, err)

	_, err = compress.Decompress(body, compress.CompressTypeGzip)
	require.Error(t, err)
}
