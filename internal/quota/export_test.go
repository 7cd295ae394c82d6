package quota

import "time"

// SetNow replaces the clock used to stamp new entries.
func (c *FileCache) SetNow(now func() time.Time) {
	c.now = now
}
