// internal/resources/cache.go
package resources

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned for keys that resolve to no resource.
var ErrNotFound = errors.New("resources: not found")

// Cache maps resource keys, such as the src of an image or a url() in a
// style, to their decoded content. Implementations are safe for concurrent use.
type Cache interface {
	Bytes(key string) ([]byte, error)
	Image(key string) (image.Image, error)
}

type imageSize struct{ width, height int }

// FileCache serves resources from a directory. A key is a slash separated
// path below the root, optionally prefixed with file://; it never escapes
// the root. A missing file is looked up again with .br and .gz suffixes,
// and compressed files are decoded transparently. Results, failures
// included, are cached for the cache's lifetime.
type FileCache struct {
	root   string
	logger *zap.Logger
	group  singleflight.Group

	mu     sync.RWMutex
	data   map[string][]byte
	images map[string]image.Image
	sizes  map[string]imageSize
	errs   map[string]error
}

// NewFileCache returns a cache reading below root.
func NewFileCache(root string, logger *zap.Logger) *FileCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCache{
		root:   root,
		logger: logger.Named("resources"),
		data:   make(map[string][]byte),
		images: make(map[string]image.Image),
		sizes:  make(map[string]imageSize),
		errs:   make(map[string]error),
	}
}

// Root returns the directory resources are read from.
func (c *FileCache) Root() string { return c.root }

// resolve maps key to a file path inside the root.
func (c *FileCache) resolve(key string) (string, error) {
	key = strings.TrimPrefix(key, "file://")
	if key == "" || strings.Contains(key, "://") || strings.HasPrefix(key, "data:") {
		return "", fmt.Errorf("%w: unsupported key %q", ErrNotFound, key)
	}
	clean := path.Clean("/" + key)
	return filepath.Join(c.root, filepath.FromSlash(clean)), nil
}

func (c *FileCache) read(key string) ([]byte, error) {
	p, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	candidates := []string{p}
	if encodingOf(p) == "" {
		candidates = append(candidates, p+".br", p+".gz")
	}
	for _, file := range candidates {
		raw, err := os.ReadFile(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		out, err := decompress(encodingOf(file), raw)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		c.logger.Debug("Loaded resource.", zap.String("key", key), zap.String("file", file), zap.Int("bytes", len(out)))
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// Bytes returns the decoded content of key.
func (c *FileCache) Bytes(key string) ([]byte, error) {
	c.mu.RLock()
	data, ok := c.data[key]
	err := c.errs[key]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}
	if err != nil {
		return nil, err
	}

	v, err, _ := c.group.Do("bytes:"+key, func() (interface{}, error) {
		data, err := c.read(key)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.errs[key] = err
			return nil, err
		}
		c.data[key] = data
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Image decodes key as PNG, JPEG, GIF, WebP or BMP.
func (c *FileCache) Image(key string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.images[key]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	v, err, _ := c.group.Do("image:"+key, func() (interface{}, error) {
		data, err := c.Bytes(key)
		if err != nil {
			return nil, err
		}
		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			c.logger.Warn("Undecodable image.", zap.String("key", key), zap.Error(err))
			return nil, fmt.Errorf("decoding image %s: %w", key, err)
		}
		c.logger.Debug("Decoded image.", zap.String("key", key), zap.String("format", format))
		c.mu.Lock()
		c.images[key] = img
		c.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// ImageSize returns the intrinsic size of the image at key from its header,
// without decoding the pixels.
func (c *FileCache) ImageSize(key string) (int, int, error) {
	c.mu.RLock()
	s, ok := c.sizes[key]
	c.mu.RUnlock()
	if ok {
		return s.width, s.height, nil
	}
	data, err := c.Bytes(key)
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("reading image header %s: %w", key, err)
	}
	c.mu.Lock()
	c.sizes[key] = imageSize{cfg.Width, cfg.Height}
	c.mu.Unlock()
	return cfg.Width, cfg.Height, nil
}
