package provider

import "fmt"

// ProfilingLevel controls how much timing detail the device driver collects
// while executing compiled graphs.
type ProfilingLevel int

const (
	ProfilingOff ProfilingLevel = iota
	ProfilingBasic
	ProfilingDetailed
)

func (l ProfilingLevel) String() string {
	switch l {
	case ProfilingBasic:
		return "basic"
	case ProfilingDetailed:
		return "detailed"
	default:
		return "off"
	}
}

// Options configures one provider instance.
type Options struct {
	// BackendPath points at the NXA driver library to load. Empty selects the
	// software runtime.
	BackendPath string

	ProfilingLevel ProfilingLevel
}

// ParseOptions reads the engine-supplied key/value option map. Unknown keys
// and unknown values are hard errors so misspelled options never silently
// fall back to defaults.
func ParseOptions(kv map[string]string) (Options, error) {
	var opts Options
	for k, v := range kv {
		switch k {
		case "backend_path":
			opts.BackendPath = v
		case "profiling_level":
			switch v {
			case "off":
				opts.ProfilingLevel = ProfilingOff
			case "basic":
				opts.ProfilingLevel = ProfilingBasic
			case "detailed":
				opts.ProfilingLevel = ProfilingDetailed
			default:
				return Options{}, fmt.Errorf("profiling_level %q is not valid, must be off, basic or detailed", v)
			}
		default:
			return Options{}, fmt.Errorf("unknown provider option %q", k)
		}
	}
	return opts, nil
}
