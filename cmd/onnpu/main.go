// Command onnpu works with ONNX models targeting the NXA accelerator:
// inspect a model, report what the provider would offload, compile the
// offloadable partitions, and download models from HuggingFace.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/downloader"
	"github.com/onnpu/onnpu/pkg/inspector"
	"github.com/onnpu/onnpu/pkg/provider"
	"k8s.io/klog/v2"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "inspect":
		handleInspect()
	case "offload":
		handleOffload()
	case "compile":
		handleCompile()
	case "download":
		handleDownload()
	default:
		printUsage()
		os.Exit(1)
	}
}

// newFlagSet creates a subcommand flag set with the klog flags attached, so
// every command accepts -v for verbose provider logging.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	klog.InitFlags(fs)
	return fs
}

func handleInspect() {
	inspectCmd := newFlagSet("inspect")
	if err := inspectCmd.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags for inspect command: %v\n", err)
		os.Exit(1)
	}
	inputFile := inspectCmd.Arg(0)
	if inputFile == "" {
		fmt.Println("Error: Input file is required for 'inspect' command.")
		inspectCmd.Usage()
		os.Exit(1)
	}

	handleErr(inspector.InspectModel(os.Stdout, inputFile))
}

func handleOffload() {
	offloadCmd := newFlagSet("offload")
	profiling := offloadCmd.String("profiling", "off", "Profiling level: off, basic or detailed")

	if err := offloadCmd.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags for offload command: %v\n", err)
		os.Exit(1)
	}
	inputFile := offloadCmd.Arg(0)
	if inputFile == "" {
		fmt.Println("Error: Input file is required for 'offload' command.")
		offloadCmd.Usage()
		os.Exit(1)
	}

	p, err := newProvider(*profiling)
	handleErr(err)
	handleErr(inspector.OffloadReport(os.Stdout, inputFile, p))
}

func handleCompile() {
	compileCmd := newFlagSet("compile")
	profiling := compileCmd.String("profiling", "off", "Profiling level: off, basic or detailed")
	dump := compileCmd.Bool("dump", false, "Dump every compiled operator descriptor")

	if err := compileCmd.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags for compile command: %v\n", err)
		os.Exit(1)
	}
	inputFile := compileCmd.Arg(0)
	if inputFile == "" {
		fmt.Println("Error: Input file is required for 'compile' command.")
		compileCmd.Usage()
		os.Exit(1)
	}

	p, err := newProvider(*profiling)
	handleErr(err)

	model, err := onnx.ParseFile(inputFile)
	handleErr(err)
	if model.Graph == nil {
		handleErr(fmt.Errorf("model %s has no graph", inputFile))
	}

	info := onnx.NewGraphInfo(model.Graph)
	groups, err := p.GetCapability(info)
	handleErr(err)
	if len(groups) == 0 {
		fmt.Println("No offloadable partitions found.")
		return
	}

	compiled, err := p.Compile(info, groups)
	handleErr(err)
	for _, m := range compiled {
		g := m.Graph()
		fmt.Printf("Compiled partition %s: %d tensors, %d operators, inputs=%v outputs=%v\n",
			m.Name(), len(g.Tensors), len(g.Operators), m.InputNames(), m.OutputNames())
		if *dump {
			for _, op := range g.Operators {
				fmt.Println(op)
			}
		}
	}
}

func handleDownload() {
	downloadCmd := newFlagSet("download")
	modelID := downloadCmd.String("model", "", "HuggingFace model ID (e.g., 'openai/whisper-tiny.en')")
	outputPath := downloadCmd.String("output", ".", "Output directory for downloaded files")
	cliAPIKey := downloadCmd.String("api-key", "", "Optional HuggingFace API key for authenticated downloads")

	if err := downloadCmd.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags for download command: %v\n", err)
		os.Exit(1)
	}
	if *modelID == "" {
		fmt.Println("Error: --model flag is required for 'download' command.")
		downloadCmd.Usage()
		os.Exit(1)
	}

	apiKey := *cliAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("HF_API_KEY")
	}

	hfSource := downloader.NewHuggingFaceSource(apiKey)
	d := downloader.NewDownloader(hfSource)

	fmt.Printf("Downloading model '%s' to '%s'...\n", *modelID, *outputPath)

	result, err := d.Download(*modelID, *outputPath)
	handleErr(err)

	fmt.Printf("Successfully downloaded model to: %s\n", result.ModelPath)
	if len(result.TokenizerPaths) > 0 {
		fmt.Println("Downloaded tokenizer files:")
		for _, p := range result.TokenizerPaths {
			fmt.Printf("  - %s\n", p)
		}
	}
}

func newProvider(profiling string) (*provider.Provider, error) {
	opts, err := provider.ParseOptions(map[string]string{"profiling_level": profiling})
	if err != nil {
		return nil, err
	}
	return provider.New(opts, nil), nil
}

func printUsage() {
	fmt.Println("Usage: onnpu <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  inspect <input-file.onnx>")
	fmt.Println("  offload <input-file.onnx> [--profiling <off|basic|detailed>]")
	fmt.Println("  compile <input-file.onnx> [--profiling <off|basic|detailed>] [--dump]")
	fmt.Println("  download --model <huggingface-model-id> [--output <output-directory>] [--api-key <your-api-key> | HF_API_KEY=<your-api-key>]")
}

func handleErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
