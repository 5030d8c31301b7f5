package layout

import (
	"context"
	"fmt"
	"strings"

	"pdf-revision-engine/internal/domain"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer runs OCR through the tesseract C API.
type TesseractRecognizer struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

func NewTesseractRecognizer(languages ...string) *TesseractRecognizer {
	return &TesseractRecognizer{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// Recognize returns one entry per text line with its pixel box.
func (t *TesseractRecognizer) Recognize(ctx context.Context, image []byte) ([]domain.RecognizedLine, error) {
	return runWithContext(ctx, func() ([]domain.RecognizedLine, error) {
		c := t.clientFactory()
		defer c.Close()

		if len(t.languages) > 0 {
			if err := c.SetLanguage(t.languages...); err != nil {
				return nil, fmt.Errorf("set languages: %w", err)
			}
		}
		if err := c.SetImageFromBytes(image); err != nil {
			return nil, fmt.Errorf("set image: %w", err)
		}

		boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
		if err != nil {
			return nil, fmt.Errorf("recognize lines: %w", err)
		}

		lines := make([]domain.RecognizedLine, 0, len(boxes))
		for _, b := range boxes {
			text := strings.TrimSpace(b.Word)
			if text == "" {
				continue
			}
			lines = append(lines, domain.RecognizedLine{
				Text: text,
				Box: domain.Rect{
					X0: float64(b.Box.Min.X),
					Y0: float64(b.Box.Min.Y),
					X1: float64(b.Box.Max.X),
					Y1: float64(b.Box.Max.Y),
				},
				Confidence: b.Confidence / 100,
			})
		}
		return lines, nil
	})
}
