package alloc

import (
	"github.com/joshuapare/numakit/internal/affinity"
	"github.com/joshuapare/numakit/internal/backing"
	"github.com/joshuapare/numakit/internal/topology"
)

// Topology is a type alias for the canonical provider interface in internal/topology.
type Topology = topology.Provider

// Backing is a type alias for the canonical store interface in internal/backing.
type Backing = backing.Store

// Affinity is a type alias for the canonical pinner interface in internal/affinity.
type Affinity = affinity.Pinner
