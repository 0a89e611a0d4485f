// internal/resources/compression.go
package resources

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// Pooled decompression readers; each is Reset before use.
var (
	gzipReaderPool = sync.Pool{
		New: func() interface{} {
			return new(gzip.Reader)
		},
	}

	brotliReaderPool = sync.Pool{
		New: func() interface{} {
			return brotli.NewReader(nil)
		},
	}
)

// emptyReader is used to release pooled readers' sources.
var emptyReader = strings.NewReader("")

func getGzipReader(r io.Reader) (*gzip.Reader, error) {
	zr := gzipReaderPool.Get().(*gzip.Reader)
	if err := zr.Reset(r); err != nil {
		gzipReaderPool.Put(zr)
		return nil, err
	}
	return zr, nil
}

func putGzipReader(zr *gzip.Reader) {
	// Reset on an empty reader returns io.EOF, which is expected here.
	_ = zr.Reset(emptyReader)
	gzipReaderPool.Put(zr)
}

func getBrotliReader(r io.Reader) *brotli.Reader {
	br := brotliReaderPool.Get().(*brotli.Reader)
	_ = br.Reset(r)
	return br
}

func putBrotliReader(br *brotli.Reader) {
	_ = br.Reset(emptyReader)
	brotliReaderPool.Put(br)
}

// encodingOf maps a file suffix to its content encoding, "" for plain files.
func encodingOf(path string) string {
	switch {
	case strings.HasSuffix(path, ".br"):
		return "br"
	case strings.HasSuffix(path, ".gz"):
		return "gzip"
	}
	return ""
}

// decompress decodes data stored with encoding. Plain data is returned as is.
func decompress(encoding string, data []byte) ([]byte, error) {
	switch encoding {
	case "":
		return data, nil
	case "br":
		br := getBrotliReader(bytes.NewReader(data))
		defer putBrotliReader(br)
		out, err := io.ReadAll(br)
		if err != nil {
			return nil, fmt.Errorf("decoding brotli: %w", err)
		}
		return out, nil
	case "gzip":
		zr, err := getGzipReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("reading gzip header: %w", err)
		}
		defer putGzipReader(zr)
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decoding gzip: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported content encoding %q", encoding)
}
