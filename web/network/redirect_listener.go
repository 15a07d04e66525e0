// Package network lets one TLS port answer plain HTTP with a redirect.
package network

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

// tlsHandshake is the first byte of every TLS record carrying a handshake.
const tlsHandshake = 0x16

// RedirectListener accepts connections for a TLS server. Connections that
// start with plain HTTP get a 307 to the https:// URL and are closed.
type RedirectListener struct {
	net.Listener
}

func NewRedirectListener(l net.Listener) net.Listener {
	return &RedirectListener{Listener: l}
}

func (l *RedirectListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &peekConn{Conn: conn, r: bufio.NewReader(conn)}, nil
}

// peekConn reads through a buffer so the first byte can be inspected
// without being consumed.
type peekConn struct {
	net.Conn
	r       *bufio.Reader
	checked bool
}

func (c *peekConn) Read(p []byte) (int, error) {
	if !c.checked {
		c.checked = true
		first, err := c.r.Peek(1)
		if err != nil {
			return 0, err
		}
		if first[0] != tlsHandshake {
			c.redirect()
			return 0, net.ErrClosed
		}
	}
	return c.r.Read(p)
}

func (c *peekConn) redirect() {
	defer c.Conn.Close()
	req, err := http.ReadRequest(c.r)
	if err != nil {
		return
	}
	resp := http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", fmt.Sprintf("https://%s%s", req.Host, req.RequestURI))
	resp.Header.Set("Connection", "close")
	_ = resp.Write(c.Conn)
}
