// Package inspector prints human-readable summaries of ONNX models and of
// what the NXA provider would offload from them.
package inspector

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/provider"
	"github.com/x448/float16"
)

// InspectModel prints a summary of an ONNX model: versions, graph shape,
// and initializer storage broken down by element type.
func InspectModel(w io.Writer, path string) error {
	model, err := onnx.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to load ONNX model: %w", err)
	}

	fmt.Fprintf(w, "Model: %s\n", path)
	fmt.Fprintf(w, "IR version: %d\n", model.IRVersion)
	for _, opset := range model.OpsetImport {
		domain := opset.Domain
		if domain == "" {
			domain = "ai.onnx"
		}
		fmt.Fprintf(w, "Opset: %s v%d\n", domain, opset.Version)
	}
	if model.ProducerName != "" {
		fmt.Fprintf(w, "Producer: %s %s\n", model.ProducerName, model.ProducerVersion)
	}

	g := model.Graph
	if g == nil {
		return fmt.Errorf("model %s has no graph", path)
	}
	fmt.Fprintf(w, "Graph %q: %d nodes, %d inputs, %d outputs, %d initializers\n",
		g.Name, len(g.Nodes), len(g.Inputs), len(g.Outputs), len(g.Initializers))

	printOpHistogram(w, g)
	printInitializerStats(w, g)
	return nil
}

func printOpHistogram(w io.Writer, g *onnx.GraphProto) {
	counts := make(map[string]int)
	for i := range g.Nodes {
		counts[g.Nodes[i].OpType]++
	}
	ops := make([]string, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	fmt.Fprintln(w, "Operators:")
	for _, op := range ops {
		fmt.Fprintf(w, "  %-24s %d\n", op, counts[op])
	}
}

func printInitializerStats(w io.Writer, g *onnx.GraphProto) {
	if len(g.Initializers) == 0 {
		return
	}
	bytesByType := make(map[int32]uint64)
	var total uint64
	for i := range g.Initializers {
		t := &g.Initializers[i]
		data, err := onnx.UnpackInitializer(t)
		if err != nil {
			continue
		}
		bytesByType[t.DataType] += uint64(len(data))
		total += uint64(len(data))
	}
	fmt.Fprintf(w, "Initializer storage: %s\n", humanize.IBytes(total))
	types := make([]int32, 0, len(bytesByType))
	for dt := range bytesByType {
		types = append(types, dt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, dt := range types {
		fmt.Fprintf(w, "  %-12s %s\n", onnx.DataTypeName(dt), humanize.IBytes(bytesByType[dt]))
	}
	printFloat16Range(w, g)
}

// printFloat16Range reports the value range of half-precision weights, a
// quick sanity check before quantized offload.
func printFloat16Range(w io.Writer, g *onnx.GraphProto) {
	var lo, hi float32
	found := false
	for i := range g.Initializers {
		t := &g.Initializers[i]
		if t.DataType != onnx.TensorProtoFloat16 {
			continue
		}
		data, err := onnx.UnpackInitializer(t)
		if err != nil {
			continue
		}
		for off := 0; off+1 < len(data); off += 2 {
			v := float16.Frombits(uint16(data[off]) | uint16(data[off+1])<<8).Float32()
			if !found {
				lo, hi = v, v
				found = true
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if found {
		fmt.Fprintf(w, "Float16 weight range: [%g, %g]\n", lo, hi)
	}
}

// OffloadReport runs the provider's capability query over the model and
// prints which node units would run on NXA and which stay behind.
func OffloadReport(w io.Writer, path string, p *provider.Provider) error {
	model, err := onnx.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to load ONNX model: %w", err)
	}
	if model.Graph == nil {
		return fmt.Errorf("model %s has no graph", path)
	}

	info := onnx.NewGraphInfo(model.Graph)
	units, err := onnx.BuildNodeUnits(info)
	if err != nil {
		return err
	}
	groups, err := p.GetCapability(info)
	if err != nil {
		return err
	}

	offloaded := make(map[string]bool)
	for _, g := range groups {
		for _, u := range g.Units {
			offloaded[u.Name()] = true
		}
	}

	fmt.Fprintf(w, "Graph %q: %d node units, %d offloadable in %d partition(s)\n",
		model.Graph.Name, len(units), len(offloaded), len(groups))
	for _, g := range groups {
		fmt.Fprintf(w, "  partition %s: %d units (%s .. %s)\n",
			g.Name, len(g.Units), g.Units[0].Name(), g.Units[len(g.Units)-1].Name())
	}
	for _, u := range units {
		if !offloaded[u.Name()] {
			fmt.Fprintf(w, "  cpu fallback: %s (%s)\n", u.Name(), u.OpType())
		}
	}
	return nil
}
