package platform

import "github.com/LavishGent/datastore/internal/types"

// Environment answers the runtime questions the backends branch on. It is
// fixed when the host is built.
type Environment struct {
	external  bool
	multisite bool
	networkID int64
}

// NewEnvironment describes the object cache and network of a host.
func NewEnvironment(external, multisite bool, networkID int64) *Environment {
	return &Environment{external: external, multisite: multisite, networkID: networkID}
}

func (e *Environment) UsingExternalObjectCache() bool { return e.external }

func (e *Environment) IsMultisite() bool { return e.multisite }

func (e *Environment) CurrentNetworkID() int64 { return e.networkID }

var _ types.Environment = (*Environment)(nil)
