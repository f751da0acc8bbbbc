package types

import "strconv"

// Scope selects the table a durable or expiring primitive works on: the
// site-local table or the network-wide table of one network.
type Scope struct {
	NetworkID int64
	Network   bool
}

// SiteScope addresses the site-local table.
func SiteScope() Scope {
	return Scope{}
}

// NetworkScope addresses the network-wide table of the given network.
func NetworkScope(networkID int64) Scope {
	return Scope{NetworkID: networkID, Network: true}
}

// Table returns the scope whose table holds entries of s. A single-site
// install has no network tables, so network entries go to the site table
// under their own name prefixes.
func (s Scope) Table(multisite bool) Scope {
	if s.Network && !multisite {
		return SiteScope()
	}
	return s
}

func (s Scope) String() string {
	if !s.Network {
		return "site"
	}
	return "network:" + strconv.FormatInt(s.NetworkID, 10)
}
