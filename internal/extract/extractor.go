// Package extract pulls text out of uploaded food label images and
// documents so it can be translated.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownMethod is returned when a request names an OCR method the
// extractor has no backend for.
var ErrUnknownMethod = errors.New("unknown OCR method")

// Result is the extracted text plus the completion tokens the extraction
// itself consumed (zero for non-vision paths).
type Result struct {
	Text   string
	Tokens int
}

// Extractor routes uploads to the right text extraction: OCR for images,
// format-specific parsing for documents. Images go through one of the
// named OCR backends, chosen per request or falling back to the default.
type Extractor struct {
	ocrs          map[string]OCR
	defaultMethod string
}

func NewExtractor(ocrs map[string]OCR, defaultMethod string) *Extractor {
	return &Extractor{ocrs: ocrs, defaultMethod: defaultMethod}
}

var imageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Extract returns the text content of an uploaded file, dispatching on the
// filename extension. Unknown extensions are treated as plain text. An
// empty method selects the default OCR backend for images.
func (e *Extractor) Extract(ctx context.Context, filename, method string, content []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	if mime, ok := imageExts[ext]; ok {
		ocr, err := e.selectOCR(method)
		if err != nil {
			return Result{}, err
		}
		text, tokens, err := ocr.Recognize(ctx, content, mime)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text, Tokens: tokens}, nil
	}

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".xlsx":
		text, err = extractExcel(content)
	default:
		text, err = extractPlain(content)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}

func (e *Extractor) selectOCR(method string) (OCR, error) {
	if method == "" {
		method = e.defaultMethod
	}
	if method == "" {
		return nil, errors.New("no OCR backend configured")
	}
	ocr, ok := e.ocrs[method]
	if !ok || ocr == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownMethod, method)
	}
	return ocr, nil
}
