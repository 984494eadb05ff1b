package messenger

import (
	"context"
	"sync"

	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/pkg/message"
	"golang.org/x/sync/singleflight"
)

// uploader is the part of Client the cache needs.
type uploader interface {
	UploadAttachment(ctx context.Context, url string, typ message.AttachmentType) (string, error)
}

// AttachmentCache resolves media URLs to reusable attachment ids, uploading
// each URL once. Concurrent misses for the same key share one upload.
// Failed uploads are not cached.
type AttachmentCache struct {
	up    uploader
	group singleflight.Group

	mu  sync.RWMutex
	ids map[string]string
}

var _ channel.AttachmentResolver = (*AttachmentCache)(nil)

// NewAttachmentCache creates an empty cache backed by up.
func NewAttachmentCache(up uploader) *AttachmentCache {
	return &AttachmentCache{up: up, ids: make(map[string]string)}
}

// Resolve implements channel.AttachmentResolver.
func (c *AttachmentCache) Resolve(ctx context.Context, url string, typ message.AttachmentType) (string, error) {
	key := string(typ) + "|" + url

	c.mu.RLock()
	id, ok := c.ids[key]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		id, err := c.up.UploadAttachment(ctx, url, typ)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.ids[key] = id
		c.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len returns the number of cached ids.
func (c *AttachmentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}
