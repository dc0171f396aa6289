package core

import (
	"context"

	"gopkg.in/yaml.v3"
)

// Configurable modules receive their raw YAML section before Provision.
type Configurable interface {
	Configure(node *yaml.Node) error
}

// Provisioner modules build their state and publish services. Services
// published by modules loaded earlier are visible through ctx.Service.
type Provisioner interface {
	Provision(ctx *AppContext) error
}

// Validator modules check their provisioned state. Must not have side effects.
type Validator interface {
	Validate() error
}

// Starter modules launch background work once every module is provisioned.
type Starter interface {
	Start() error
}

// Stopper modules release resources. Called in reverse start order.
type Stopper interface {
	Stop(ctx context.Context) error
}
