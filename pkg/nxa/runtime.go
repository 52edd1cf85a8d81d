package nxa

import "errors"

// ErrNoDevice is returned by the software runtime when execution is
// requested; running a prepared graph requires real NXA firmware.
var ErrNoDevice = errors.New("no NXA device attached")

// Runtime abstracts the accelerator driver that consumes finalized graphs.
type Runtime interface {
	// PrepareGraph hands a finalized graph to the device and returns an
	// executable handle for it.
	PrepareGraph(g *Graph) (Executable, error)
}

// Executable is a prepared graph ready to run on the device.
type Executable interface {
	GraphName() string
	// Execute runs the graph with raw input buffers keyed by tensor name and
	// fills the output buffers in place.
	Execute(inputs map[string][]byte, outputs map[string][]byte) error
}

// SoftwareRuntime is the host-only Runtime used when no device is present:
// it accepts any structurally valid graph and refuses execution. Useful for
// compile-path testing and offline graph inspection.
type SoftwareRuntime struct{}

// NewSoftwareRuntime creates the host-only runtime.
func NewSoftwareRuntime() *SoftwareRuntime { return &SoftwareRuntime{} }

// PrepareGraph re-validates every operator against the final registry and
// returns a handle that cannot execute.
func (r *SoftwareRuntime) PrepareGraph(g *Graph) (Executable, error) {
	for _, op := range g.Operators {
		for _, in := range op.InputNames {
			if g.Tensor(in) == nil {
				return nil, Errorf(KindMissingTensor, "graph %s: operator %s references unknown tensor %q", g.Name, op.Name, in)
			}
		}
	}
	return &softwareExecutable{name: g.Name}, nil
}

type softwareExecutable struct {
	name string
}

func (e *softwareExecutable) GraphName() string { return e.name }

func (e *softwareExecutable) Execute(map[string][]byte, map[string][]byte) error {
	return ErrNoDevice
}
