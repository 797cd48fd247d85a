package discovery

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hue-bridge-client/internal/ports"
)

const ssdpMulticast = "239.255.255.250:1900"

// SSDP sends M-SEARCH requests and collects the answers of Hue bridges.
type SSDP struct {
	addr    string
	timeout time.Duration
}

func NewSSDP(timeout time.Duration) *SSDP {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &SSDP{addr: ssdpMulticast, timeout: timeout}
}

func (s *SSDP) Discover(ctx context.Context) ([]ports.DiscoveredBridge, error) {
	dest, err := net.ResolveUDPAddr("udp4", s.addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	for _, st := range []string{"urn:schemas-upnp-org:device:basic:1", "upnp:rootdevice"} {
		msg := "M-SEARCH * HTTP/1.1\r\n" +
			"HOST: " + ssdpMulticast + "\r\n" +
			"MAN: \"ssdp:discover\"\r\n" +
			"ST: " + st + "\r\n" +
			"MX: 2\r\n\r\n"
		if _, err := conn.WriteToUDP([]byte(msg), dest); err != nil {
			return nil, err
		}
	}

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	var out []ports.DiscoveredBridge
	seen := map[string]bool{}
	buf := make([]byte, 2048)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return out, ctx.Err()
			}
			return out, err
		}
		b, ok := parseSSDPResponse(buf[:n], src)
		if !ok || seen[b.Host] {
			continue
		}
		seen[b.Host] = true
		out = append(out, b)
	}
}

// parseSSDPResponse accepts answers that identify as a Hue bridge, either by
// the hue-bridgeid header or the IpBridge server token.
func parseSSDPResponse(data []byte, src *net.UDPAddr) (ports.DiscoveredBridge, bool) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	if err != nil {
		return ports.DiscoveredBridge{}, false
	}
	defer resp.Body.Close()

	id := resp.Header.Get("hue-bridgeid")
	if id == "" && !strings.Contains(resp.Header.Get("Server"), "IpBridge") {
		return ports.DiscoveredBridge{}, false
	}

	host := src.IP.String()
	if loc, err := url.Parse(resp.Header.Get("Location")); err == nil && loc.Hostname() != "" {
		host = loc.Hostname()
	}
	return ports.DiscoveredBridge{Host: host, ID: NormalizeBridgeID(id)}, true
}
