// Package downloader fetches ONNX models and their sidecar files from a
// model hub so they can be inspected and compiled locally.
package downloader

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Overridable so tests can point at a local server.
var (
	huggingFaceAPI = "https://huggingface.co/api/models/"
	huggingFaceCDN = "https://huggingface.co/"
)

func init() {
	if apiURL := os.Getenv("HUGGINGFACE_API_URL"); apiURL != "" {
		huggingFaceAPI = apiURL
	}
	if cdnURL := os.Getenv("HUGGINGFACE_CDN_URL"); cdnURL != "" {
		huggingFaceCDN = cdnURL
	}
}

// ModelSource is a remote hub that can materialize a model locally.
type ModelSource interface {
	// DownloadModel downloads the model and its associated files into
	// destination and returns the local paths.
	DownloadModel(modelID string, destination string) (*DownloadResult, error)
}

// DownloadResult holds the local paths of the downloaded files.
type DownloadResult struct {
	ModelPath      string
	TokenizerPaths []string
}

// Downloader drives a ModelSource.
type Downloader struct {
	source ModelSource
}

// NewDownloader creates a Downloader over the given source.
func NewDownloader(source ModelSource) *Downloader {
	return &Downloader{source: source}
}

// Download fetches a model and its sidecar files.
func (d *Downloader) Download(modelID string, destination string) (*DownloadResult, error) {
	return d.source.DownloadModel(modelID, destination)
}

// HuggingFaceSource implements ModelSource against the HuggingFace Hub.
type HuggingFaceSource struct {
	client *http.Client
	apiKey string
}

// NewHuggingFaceSource creates a hub source. apiKey may be empty for public
// models.
func NewHuggingFaceSource(apiKey string) *HuggingFaceSource {
	return &HuggingFaceSource{
		client: &http.Client{},
		apiKey: apiKey,
	}
}

// huggingFaceModelInfo is the slice of the hub's model-info response we
// consume.
type huggingFaceModelInfo struct {
	ModelID  string `json:"modelId"`
	Siblings []struct {
		RPath string `json:"rfilename"`
	} `json:"siblings"`
}

// DownloadModel lists the model's files via the hub API, then downloads the
// ONNX graph plus anything that looks like tokenizer metadata.
func (h *HuggingFaceSource) DownloadModel(modelID string, destination string) (*DownloadResult, error) {
	info, err := h.fetchModelInfo(modelID)
	if err != nil {
		return nil, err
	}

	var modelPath string
	var tokenizerPaths []string
	for _, sibling := range info.Siblings {
		rPath := sibling.RPath
		switch {
		case strings.HasSuffix(rPath, ".onnx"):
			modelPath = filepath.Join(destination, filepath.Base(rPath))
			if err := h.downloadFile(fileURL(modelID, rPath), modelPath); err != nil {
				return nil, fmt.Errorf("failed to download ONNX model %s: %w", rPath, err)
			}
		case strings.Contains(rPath, "tokenizer") || strings.HasSuffix(rPath, ".json") || strings.HasSuffix(rPath, ".txt"):
			p := filepath.Join(destination, filepath.Base(rPath))
			if err := h.downloadFile(fileURL(modelID, rPath), p); err != nil {
				return nil, fmt.Errorf("failed to download tokenizer file %s: %w", rPath, err)
			}
			tokenizerPaths = append(tokenizerPaths, p)
		}
	}

	if modelPath == "" {
		return nil, fmt.Errorf("no ONNX model found for model ID: %s", modelID)
	}
	return &DownloadResult{ModelPath: modelPath, TokenizerPaths: tokenizerPaths}, nil
}

func (h *HuggingFaceSource) fetchModelInfo(modelID string) (*huggingFaceModelInfo, error) {
	req, err := http.NewRequest(http.MethodGet, huggingFaceAPI+modelID, nil)
	if err != nil {
		return nil, err
	}
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model info from HuggingFace API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HuggingFace API returned non-OK status: %s", resp.Status)
	}
	var info huggingFaceModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode HuggingFace API response: %w", err)
	}
	return &info, nil
}

func fileURL(modelID, rPath string) string {
	return huggingFaceCDN + modelID + "/resolve/main/" + rPath
}

func (h *HuggingFaceSource) downloadFile(url, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(filePath), err)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file from %s: status code %s", url, resp.Status)
	}

	out, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filePath, err)
	}
	return nil
}
