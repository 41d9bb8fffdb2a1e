package transport

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

// serviceType identifies a live view host on the local network.
const serviceType = "_canvaslink._tcp"

// Announce advertises a live view host over mDNS so that a learner process
// can find it without configuration. The returned server must be shut down
// at session end.
func Announce(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"canvaslink"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	logrus.WithFields(logrus.Fields{"service": serviceType, "port": port}).Info("announcing live view host")
	return server, nil
}

// Discover browses for a live view host and returns the first host:port
// found, or an error when the timeout elapses.
func Discover(timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)

	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port):
			default:
			}
		}
	}()

	if err := mdns.Lookup(serviceType, entries); err != nil {
		return "", fmt.Errorf("mDNS lookup: %w", err)
	}
	close(entries)

	select {
	case addr := <-found:
		return addr, nil
	case <-time.After(timeout):
		return "", fmt.Errorf("no live view host found within %s", timeout)
	}
}
