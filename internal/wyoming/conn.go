package wyoming

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"
)

// ParseURI splits a tcp://host:port or unix://path URI into a network and an
// address suitable for the net package.
func ParseURI(uri string) (network, address string, err error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", "", fmt.Errorf("parse uri %q: %w", uri, err)
	}
	switch u.Scheme {
	case "tcp":
		if u.Host == "" {
			return "", "", fmt.Errorf("uri %q: missing host:port", uri)
		}
		if _, _, err := net.SplitHostPort(u.Host); err != nil {
			return "", "", fmt.Errorf("uri %q: %w", uri, err)
		}
		return "tcp", u.Host, nil
	case "unix":
		path := u.Path
		if u.Host != "" {
			// unix://relative/path parses the first segment as host.
			path = u.Host + u.Path
		}
		if path == "" {
			return "", "", fmt.Errorf("uri %q: missing socket path", uri)
		}
		return "unix", path, nil
	default:
		return "", "", fmt.Errorf("uri %q: unsupported scheme %q (want tcp or unix)", uri, u.Scheme)
	}
}

// Listen opens a listener for uri. A stale unix socket file is removed first.
func Listen(ctx context.Context, uri string) (net.Listener, error) {
	network, address, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if network == "unix" {
		if err := os.Remove(address); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", address, err)
		}
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", uri, err)
	}
	return ln, nil
}

// Conn is a bidirectional event stream over a network connection.
type Conn struct {
	net.Conn
	*Reader
	*Writer
}

func NewConn(c net.Conn) *Conn {
	return &Conn{Conn: c, Reader: NewReader(c), Writer: NewWriter(c)}
}

// Dial connects to a Wyoming service.
func Dial(ctx context.Context, uri string) (*Conn, error) {
	network, address, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	c, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", uri, err)
	}
	return NewConn(c), nil
}

// ReadEventContext reads one event, giving up when ctx is done. The
// connection is closed on cancellation since the read cannot be resumed.
func (c *Conn) ReadEventContext(ctx context.Context) (Event, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.SetReadDeadline(deadline)
		defer func() { _ = c.SetReadDeadline(time.Time{}) }()
	}
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	ev, err := c.ReadEvent()
	if err != nil && ctx.Err() != nil {
		return Event{}, ctx.Err()
	}
	return ev, err
}
