// Command lingopix translates the text in an image: it detects text blocks,
// translates them, and writes a copy of the image with the translations
// rendered over the original text.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"

	vision "cloud.google.com/go/vision/apiv1"
	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"github.com/ridge/must/v2"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/lingopix-project/lingopix/config"
	"github.com/lingopix-project/lingopix/engine/block"
	"github.com/lingopix-project/lingopix/engine/compose"
	"github.com/lingopix-project/lingopix/engine/font"
	"github.com/lingopix-project/lingopix/engine/render"
	"github.com/lingopix-project/lingopix/pipeline"
	"github.com/lingopix-project/lingopix/pkg/env"
	"github.com/lingopix-project/lingopix/providers/ocr"
	"github.com/lingopix-project/lingopix/providers/translate"
)

func loadEnv(path string) {
	if path == "" {
		env.Load()
		return
	}
	must.OK(godotenv.Load(path))
}

const geminiModel = "gemini-1.5-flash"

func main() {
	envFile := flag.String("env", "", "optional .env file to load before reading configuration")
	input := flag.String("in", "", "input image path (png, jpeg or gif)")
	output := flag.String("out", "translated.png", "output image path (png)")
	flag.Parse()
	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	loadEnv(*envFile)

	ctx := context.Background()
	options := config.PipelineFromEnv()
	style := config.StyleFromEnv()

	imageBytes := must.OK1(os.ReadFile(*input))
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		log.Fatalf("failed to decode %s: %v", *input, err)
	}

	fonts := font.NewResolver()
	renderer := render.New(fonts)
	wiring := newWiring(ctx, options)
	defer wiring.close()

	p := &pipeline.Pipeline{
		Primary:            wiring.ocrProvider(options.OCRProvider),
		Fallback:           wiring.ocrProvider(options.FallbackOCRProvider),
		Translator:         wiring.translator(options.TranslationProvider),
		FallbackTranslator: wiring.translator(options.FallbackTranslation),
		Detector:           wiring.detector(options.OCRProvider),
		Renderer:           renderer,
		Arena:              block.NewArena(),
		Style:              style,
		Sizes:              config.SizeTableFromEnv(),
		Options:            options,
	}
	if p.Primary == nil && p.Detector == nil {
		log.Fatalf("no usable OCR provider configured (got %q)", options.OCRProvider)
	}
	if p.Translator == nil && p.Detector == nil {
		log.Fatalf("no usable translation provider configured (got %q)", options.TranslationProvider)
	}

	result, err := p.Run(ctx, imageBytes, img.Bounds().Dx(), img.Bounds().Dy())
	if err != nil {
		log.Fatalf("translation pipeline failed in state %s: %v", result.State, err)
	}
	log.Printf("translated %d text blocks", len(result.Blocks))

	flattened := compose.Flatten(img, p.Arena.List(), func(b block.Block) image.Image {
		return renderer.Render(b, style)
	})

	out := must.OK1(os.Create(*output))
	must.OK(png.Encode(out, flattened))
	must.OK(out.Close())
	log.Printf("wrote %s", *output)
}

// wiring lazily constructs the external clients the selected providers need,
// so unused credentials are never required.
type wiring struct {
	ctx     context.Context
	options config.Pipeline

	gemini   *genai.Client
	visionC  *vision.ImageAnnotatorClient
	closers  []func() error
	failures []string
}

func newWiring(ctx context.Context, options config.Pipeline) *wiring {
	return &wiring{ctx: ctx, options: options}
}

func (w *wiring) close() {
	for _, c := range w.closers {
		if err := c(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

func (w *wiring) ocrProvider(name string) ocr.Provider {
	switch ocr.Kind(name) {
	case ocr.KindVision:
		client := w.visionClient()
		if client == nil {
			return nil
		}
		return must.OK1(ocr.New(ocr.KindVision, ocr.Config{Vision: client}))
	case ocr.KindPaddle:
		endpoint := os.Getenv("PADDLE_OCR_ENDPOINT")
		if endpoint == "" {
			endpoint = "http://127.0.0.1:8868/predict/ocr_system"
		}
		return must.OK1(ocr.New(ocr.KindPaddle, ocr.Config{PaddleEndpoint: endpoint}))
	default:
		// "gemini" routes through the multimodal detector instead.
		return nil
	}
}

func (w *wiring) detector(ocrProviderName string) translate.Detector {
	if ocrProviderName != "gemini" {
		return nil
	}
	client := w.geminiClient()
	if client == nil {
		return nil
	}
	return translate.NewGeminiDetector(client.GenerativeModel(geminiModel))
}

func (w *wiring) translator(name string) translate.Provider {
	switch translate.Kind(name) {
	case translate.KindOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			w.warn("openai translation selected but OPENAI_API_KEY is not set")
			return nil
		}
		cfg := openai.DefaultConfig(key)
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			cfg.BaseURL = base
		}
		return must.OK1(translate.New(translate.KindOpenAI, translate.Config{
			OpenAI:      openai.NewClientWithConfig(cfg),
			OpenAIModel: os.Getenv("OPENAI_MODEL"),
		}))
	case translate.KindGemini:
		client := w.geminiClient()
		if client == nil {
			return nil
		}
		return must.OK1(translate.New(translate.KindGemini, translate.Config{
			Gemini: client.GenerativeModel(geminiModel),
		}))
	default:
		return nil
	}
}

func (w *wiring) geminiClient() *genai.Client {
	if w.gemini != nil {
		return w.gemini
	}
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		w.warn("gemini selected but GEMINI_API_KEY is not set")
		return nil
	}
	w.gemini = must.OK1(genai.NewClient(w.ctx, option.WithAPIKey(key)))
	w.closers = append(w.closers, w.gemini.Close)
	return w.gemini
}

func (w *wiring) visionClient() *vision.ImageAnnotatorClient {
	if w.visionC != nil {
		return w.visionC
	}
	client, err := vision.NewImageAnnotatorClient(w.ctx)
	if err != nil {
		w.warn(fmt.Sprintf("vision selected but client construction failed: %v", err))
		return nil
	}
	w.visionC = client
	w.closers = append(w.closers, client.Close)
	return client
}

func (w *wiring) warn(message string) {
	for _, seen := range w.failures {
		if seen == message {
			return
		}
	}
	w.failures = append(w.failures, message)
	log.Print(message)
}
