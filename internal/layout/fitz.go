package layout

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes pages with MuPDF.
type FitzRenderer struct{}

func NewFitzRenderer() *FitzRenderer {
	return &FitzRenderer{}
}

func (r *FitzRenderer) RenderPage(ctx context.Context, path string, page int, dpi float64) ([]byte, error) {
	return runWithContext(ctx, func() ([]byte, error) {
		doc, err := fitz.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open PDF: %w", err)
		}
		defer doc.Close()

		if page < 0 || page >= doc.NumPage() {
			return nil, fmt.Errorf("page %d out of range (%d pages)", page, doc.NumPage())
		}
		img, err := doc.ImagePNG(page, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", page, err)
		}
		return img, nil
	})
}
