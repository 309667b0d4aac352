package ocr

import (
	"context"
	"fmt"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"

	"github.com/lingopix-project/lingopix/engine/merge"
	"github.com/lingopix-project/lingopix/pkg/utils"
)

// VisionClient is the slice of vision.ImageAnnotatorClient this package
// uses. Ref: https://pkg.go.dev/cloud.google.com/go/vision/apiv1
// Declared as an interface so unit tests can substitute a fake.
type VisionClient interface {
	DetectDocumentText(ctx context.Context, image *visionpb.Image, imageContext *visionpb.ImageContext, opts ...gax.CallOption) (*visionpb.TextAnnotation, error)
}

type visionProvider struct {
	client VisionClient
}

// NewVision wraps a Cloud Vision annotator as a Provider. Each detected word
// becomes one fragment; line assembly is left to the merge engine.
func NewVision(client VisionClient) Provider {
	return &visionProvider{client: client}
}

func (p *visionProvider) DetectText(ctx context.Context, imageBytes []byte) ([]merge.Fragment, error) {
	annotation, err := p.client.DetectDocumentText(ctx, &visionpb.Image{Content: imageBytes}, nil)
	if err != nil {
		return nil, fmt.Errorf("vision document text detection: %w", err)
	}
	return annotationToFragments(annotation), nil
}

func annotationToFragments(annotation *visionpb.TextAnnotation) []merge.Fragment {
	blocks := utils.FlatMap(annotation.GetPages(), func(page *visionpb.Page) []*visionpb.Block {
		return page.GetBlocks()
	})
	paragraphs := utils.FlatMap(blocks, func(block *visionpb.Block) []*visionpb.Paragraph {
		return block.GetParagraphs()
	})
	words := utils.FlatMap(paragraphs, func(paragraph *visionpb.Paragraph) []*visionpb.Word {
		return paragraph.GetWords()
	})

	return utils.Reduce(words, func(fragments []merge.Fragment, word *visionpb.Word) []merge.Fragment {
		text := utils.Reduce(word.GetSymbols(), func(text string, symbol *visionpb.Symbol) string {
			return text + symbol.GetText()
		}, "")
		polygon := utils.Map(word.GetBoundingBox().GetVertices(), func(vertex *visionpb.Vertex) [2]float64 {
			return [2]float64{float64(vertex.GetX()), float64(vertex.GetY())}
		})
		fragment, ok := merge.NewFragment(text, polygon)
		if !ok {
			return fragments
		}
		return append(fragments, fragment)
	}, nil)
}
