package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const ocrSpaceTimeout = 30 * time.Second

// OCRSpace implements the Scanner interface using the OCR.space parse API
type OCRSpace struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOCRSpace creates a new OCR.space Scanner instance
func NewOCRSpace(baseURL string, apiKey string) (*OCRSpace, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ocr.space api key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.ocr.space"
	}

	return &OCRSpace{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: ocrSpaceTimeout,
		},
	}, nil
}

// ocrSpaceResponse is the subset of the parse/image response we use
type ocrSpaceResponse struct {
	OCRExitCode   int             `json:"OCRExitCode"`
	ErrorMessage  json.RawMessage `json:"ErrorMessage"` // a string or a list of strings
	ParsedResults []struct {
		TextOverlay struct {
			Lines []struct {
				LineText string `json:"LineText"`
			} `json:"Lines"`
		} `json:"TextOverlay"`
	} `json:"ParsedResults"`
}

// ScanReceipt uploads the image and returns the recognized lines
func (o *OCRSpace) ScanReceipt(ctx context.Context, imageData []byte, contentType string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, ocrSpaceTimeout)
	defer cancel()

	uploadData, uploadName, err := prepareUpload(imageData, contentType)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"apikey":   o.apiKey,
		"language": "eng",
		"isTable":  "true",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("writing %s field: %w", name, err)
		}
	}
	part, err := writer.CreateFormFile("file", uploadName)
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(uploadData); err != nil {
		return nil, fmt.Errorf("writing file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/parse/image", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ocr.space API: %w", classifyError(ctx, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ocr.space API error (status %d): %s", ErrUnavailable, resp.StatusCode, string(msg))
	}

	var parsed ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return parsed.lines()
}

// lines extracts the recognized lines. Exit code 1 is full success and 2 is
// partial success; anything else is a failure.
func (r *ocrSpaceResponse) lines() ([]string, error) {
	if r.OCRExitCode != 1 && r.OCRExitCode != 2 {
		return nil, fmt.Errorf("%w: ocr.space exit code %d: %s", ErrUnavailable, r.OCRExitCode, r.errorMessage())
	}
	if len(r.ParsedResults) == 0 {
		return nil, ErrNoLines
	}

	raw := make([]string, 0, len(r.ParsedResults[0].TextOverlay.Lines))
	for _, line := range r.ParsedResults[0].TextOverlay.Lines {
		raw = append(raw, line.LineText)
	}
	return cleanLines(raw)
}

func (r *ocrSpaceResponse) errorMessage() string {
	if len(r.ErrorMessage) == 0 {
		return "unknown error"
	}
	var single string
	if err := json.Unmarshal(r.ErrorMessage, &single); err == nil && single != "" {
		return single
	}
	var many []string
	if err := json.Unmarshal(r.ErrorMessage, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return "unknown error"
}

// Close closes the OCR.space client (no-op for HTTP client)
func (o *OCRSpace) Close() error {
	return nil
}
