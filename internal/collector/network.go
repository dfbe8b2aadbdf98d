// Network collector enumerates network interfaces and their addresses.
// Uses gopsutil for cross-platform interface listing.
package collector

import (
	"context"
	"sort"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/Guliveer/sysinv/internal/models"
)

// NetworkCollector collects the host's network interfaces.
type NetworkCollector struct {
	list func(ctx context.Context) (net.InterfaceStatList, error)
}

// NewNetworkCollector creates a new network collector.
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{list: net.InterfacesWithContext}
}

// Category returns the collector category.
func (c *NetworkCollector) Category() models.Category { return models.CategoryNetwork }

// Collect lists interfaces ordered by name.
func (c *NetworkCollector) Collect(ctx context.Context) (models.FactValues, error) {
	stats, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	return models.NetworkFacts{Interfaces: toInterfaces(stats)}, nil
}

// IsAvailable returns true: interface listing is available on all platforms.
func (c *NetworkCollector) IsAvailable() bool { return true }

func toInterfaces(stats net.InterfaceStatList) []models.NetworkInterface {
	ifaces := make([]models.NetworkInterface, 0, len(stats))
	for _, s := range stats {
		iface := models.NetworkInterface{
			Name:  s.Name,
			MAC:   s.HardwareAddr,
			MTU:   s.MTU,
			Flags: append([]string(nil), s.Flags...),
		}
		for _, a := range s.Addrs {
			iface.Addresses = append(iface.Addresses, a.Addr)
		}
		ifaces = append(ifaces, iface)
	}
	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Name < ifaces[j].Name })
	return ifaces
}
