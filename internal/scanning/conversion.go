package scanning

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
)

// transcriptionPrompt is the shared prompt used by all LLM providers to read receipt text
const transcriptionPrompt = `You are reading a photographed or scanned receipt. Transcribe every piece of text you can see, from top to bottom.

Rules:
- Output one line of the receipt per line of your answer, in the order it appears on the receipt
- Keep item names, quantities and prices on the same line when they are printed on the same row
- Copy text exactly as printed, including prices like $3.50, dates, store names and addresses
- Do not summarise, translate, correct or reorder anything
- Do not add any commentary before or after the text
- Do not use markdown code blocks
- If there is no readable text, answer with an empty response`

// pdfFirstPage renders the first page of a PDF, where receipts almost always fit
func pdfFirstPage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// decodeImage decodes any supported raster format, HEIC included
func decodeImage(imageData []byte, mimeType string) (image.Image, error) {
	// Go's image package has no HEIC support (common on iPhones)
	if isHEIC(imageData, mimeType) {
		img, err := heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("unsupported image format %q. Supported formats: JPEG, PNG, GIF, BMP, TIFF, HEIC, HEIF, PDF: %w", mimeType, err)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s image: %w", format, err)
	}
	return img, nil
}

// isHEIC checks the ftyp box brand at offset 8 and falls back to the MIME type
func isHEIC(data []byte, mimeType string) bool {
	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		switch string(data[8:12]) {
		case "heic", "heix", "heif", "mif1", "msf1":
			return true
		}
	}
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// uploadJPEGQuality keeps converted pages legible while staying well under
// the OCR.space file size limit
const uploadJPEGQuality = 85

// sniffMimeType normalises contentType, detecting it from the data when the
// client sent none
func sniffMimeType(data []byte, contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return mimeType
}

// prepareUpload returns the image in a form OCR.space reads directly, along
// with the file name to send it under. JPEG and PNG pass through untouched;
// PDF, HEIC, GIF, BMP and TIFF are converted to JPEG, since lossless PNG of a
// photographed receipt is often several times the size of the original.
func prepareUpload(imageData []byte, contentType string) ([]byte, string, error) {
	mimeType := sniffMimeType(imageData, contentType)
	if !isHEIC(imageData, mimeType) {
		switch mimeType {
		case "image/jpeg", "image/jpg":
			return imageData, "receipt.jpg", nil
		case "image/png":
			return imageData, "receipt.png", nil
		}
	}

	img, err := decodeUpload(imageData, mimeType)
	if err != nil {
		return nil, "", fmt.Errorf("converting %s to JPEG: %w", mimeType, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: uploadJPEGQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), "receipt.jpg", nil
}

func decodeUpload(imageData []byte, mimeType string) (image.Image, error) {
	if mimeType == "application/pdf" {
		return pdfFirstPage(imageData)
	}
	return decodeImage(imageData, mimeType)
}

// prepareImageData returns the upload as PNG, which every recognizer accepts.
// PNG input that is not HEIC in disguise is passed through untouched.
func prepareImageData(imageData []byte, contentType string) ([]byte, error) {
	mimeType := sniffMimeType(imageData, contentType)
	if mimeType == "image/png" && !isHEIC(imageData, mimeType) {
		return imageData, nil
	}

	img, err := decodeUpload(imageData, mimeType)
	if err != nil {
		return nil, fmt.Errorf("converting %s to PNG: %w", mimeType, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
