package runtime

import (
	"fmt"
	"os"
)

// BusHost returns the appropriate session-bus hostname for the current
// environment. Inside a container it returns "host.docker.internal" to reach
// the host's published ports; otherwise "localhost".
func BusHost() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "host.docker.internal"
	}
	return "localhost"
}

// BusAddr constructs the host:port address of the bus for a given port.
func BusAddr(port int) string {
	return fmt.Sprintf("%s:%d", BusHost(), port)
}
