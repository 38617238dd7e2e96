//go:build !(linux || darwin)

package link

// Alive falls back to lifecycle state where a non-blocking socket poll
// is not available.
func (c *Conn) Alive() bool {
	return !c.closed.Load()
}
