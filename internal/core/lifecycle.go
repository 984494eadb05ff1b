package core

import (
	"context"

	"gopkg.in/yaml.v3"
)

// Configurable is implemented by modules that accept YAML configuration.
// Configure receives the module's raw section and runs before Provision.
type Configurable interface {
	Configure(node *yaml.Node) error
}

// Provisioner is implemented by modules that open resources or register
// services once configured.
type Provisioner interface {
	Provision(ctx *AppContext) error
}

// Validator is implemented by modules that check their configuration after
// Provision. Validate must not have side effects.
type Validator interface {
	Validate() error
}

// Starter is implemented by modules with background work (listeners,
// workers, schedulers). Start runs after every module is provisioned.
type Starter interface {
	Start() error
}

// Stopper is implemented by modules holding resources. Stop runs in reverse
// start order during shutdown.
type Stopper interface {
	Stop(ctx context.Context) error
}
