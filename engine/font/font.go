// Package font resolves font names to loadable faces and answers the metric
// questions the wrapping and rendering code asks: line heights, string
// widths, and vertical column cell sizes.
package font

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Handle is a loaded font at a fixed pixel size.
type Handle struct {
	font   *truetype.Font
	face   xfont.Face
	sizePx int
	path   string

	// fallback is set when the requested font could not be loaded and the
	// builtin face was substituted.
	fallback bool
}

// Face returns the drawable face.
func (h *Handle) Face() xfont.Face { return h.face }

// SizePx returns the nominal pixel size the handle was resolved at.
func (h *Handle) SizePx() int { return h.sizePx }

// Path returns the file the font was loaded from, empty for the builtin face.
func (h *Handle) Path() string { return h.path }

// Fallback reports whether the builtin face was substituted.
func (h *Handle) Fallback() bool { return h.fallback }

// MeasureString returns the advance width of s in pixels, rounded up.
func (h *Handle) MeasureString(s string) int {
	if s == "" {
		return 0
	}
	return xfont.MeasureString(h.face, s).Ceil()
}

// Ascent returns the face ascent in pixels. Drawing code positions baselines
// as top + ascent.
func (h *Handle) Ascent() int {
	return h.face.Metrics().Ascent.Ceil()
}

// metricSample contains ascenders and descenders so the measured bound spans
// the full vertical extent of typical text.
const metricSample = "AgyQÍ M"

// LineHeight returns the vertical extent of one line of this font, plus
// extraSpacingPx. The result is always positive: degenerate metrics fall
// back to size-derived estimates.
func (h *Handle) LineHeight(extraSpacingPx int) int {
	bounds, _ := xfont.BoundString(h.face, metricSample)
	height := (bounds.Max.Y - bounds.Min.Y).Ceil()

	var lineHeight int
	if height > 0 {
		leading := h.sizePx * 15 / 100
		if leading < 1 {
			leading = 1
		}
		lineHeight = height + leading
	} else {
		// Bitmap or otherwise metric-less faces.
		lineHeight = h.sizePx * 120 / 100
	}
	if min := h.sizePx / 2; lineHeight < min {
		lineHeight = min
	}
	if lineHeight <= 0 {
		lineHeight = 1
	}
	return lineHeight + extraSpacingPx
}

// CellWidth returns the visual width of one vertical-column cell, measured
// from a representative wide glyph.
func (h *Handle) CellWidth() int {
	w := h.MeasureString("M")
	if w <= 0 {
		w = h.sizePx
	}
	return w
}

type cacheKey struct {
	path   string
	sizePx int
	index  int
}

// Resolver maps font names or paths to Handles. It searches platform font
// directories and falls back to a builtin face, so resolution never fails.
// The cache is keyed by (path, size, index) and safe for concurrent use.
type Resolver struct {
	mu    sync.Mutex
	cache map[cacheKey]*Handle
	dirs  []string
}

// NewResolver constructs a resolver over the platform's system font
// directories.
func NewResolver() *Resolver {
	return &Resolver{
		cache: map[cacheKey]*Handle{},
		dirs:  systemFontDirs(),
	}
}

// NewResolverDirs constructs a resolver over an explicit directory list.
// Used by tests and by callers with bundled fonts.
func NewResolverDirs(dirs []string) *Resolver {
	return &Resolver{
		cache: map[cacheKey]*Handle{},
		dirs:  dirs,
	}
}

// Resolve returns a handle for the named font at the given pixel size.
// nameOrPath may be an absolute file path, a file name ("msyh.ttc") or a bare
// family name ("NotoSansJP"). When nothing matches, the builtin face is
// returned so rendering never hard-fails on a missing font.
func (r *Resolver) Resolve(nameOrPath string, sizePx int) *Handle {
	return r.ResolveIndex(nameOrPath, sizePx, 0)
}

// ResolveIndex is Resolve with an explicit collection index for .ttc files.
func (r *Resolver) ResolveIndex(nameOrPath string, sizePx, index int) *Handle {
	if sizePx <= 0 {
		sizePx = 16
	}
	path := r.findPath(nameOrPath)

	r.mu.Lock()
	defer r.mu.Unlock()
	key := cacheKey{path: path, sizePx: sizePx, index: index}
	if h, ok := r.cache[key]; ok {
		return h
	}

	h := loadHandle(nameOrPath, path, sizePx)
	r.cache[key] = h
	return h
}

func loadHandle(nameOrPath, path string, sizePx int) *Handle {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			f, parseErr := truetype.Parse(data)
			if parseErr == nil {
				return &Handle{
					font:   f,
					face:   truetype.NewFace(f, &truetype.Options{Size: float64(sizePx)}),
					sizePx: sizePx,
					path:   path,
				}
			}
			err = parseErr
		}
		log.Printf("font: failed to load %q (%s): %v, using builtin face", nameOrPath, path, err)
	} else if nameOrPath != "" {
		log.Printf("font: %q not found in system font directories, using builtin face", nameOrPath)
	}

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		// goregular is embedded and known-good.
		panic(err)
	}
	return &Handle{
		font:     f,
		face:     truetype.NewFace(f, &truetype.Options{Size: float64(sizePx)}),
		sizePx:   sizePx,
		fallback: true,
	}
}

var fontExtensions = []string{".ttf", ".otf", ".ttc"}

// findPath resolves a name to a concrete file path, or "" when not found.
func (r *Resolver) findPath(nameOrPath string) string {
	if nameOrPath == "" {
		return ""
	}
	if filepath.IsAbs(nameOrPath) {
		if _, err := os.Stat(nameOrPath); err == nil {
			return nameOrPath
		}
		return ""
	}

	lower := strings.ToLower(nameOrPath)
	hasExtension := false
	for _, ext := range fontExtensions {
		if strings.HasSuffix(lower, ext) {
			hasExtension = true
			break
		}
	}

	var candidates []string
	if hasExtension {
		candidates = []string{nameOrPath}
	} else {
		for _, ext := range fontExtensions {
			candidates = append(candidates, nameOrPath+ext)
		}
	}
	for _, candidate := range candidates {
		if path := r.findInDirs(candidate); path != "" {
			return path
		}
	}

	// A name given with a non-.ttc extension may actually exist as a
	// collection on this machine.
	if hasExtension && !strings.HasSuffix(lower, ".ttc") {
		base := strings.TrimSuffix(nameOrPath, filepath.Ext(nameOrPath))
		if path := r.findInDirs(base + ".ttc"); path != "" {
			return path
		}
	}
	return ""
}

func (r *Resolver) findInDirs(fileName string) string {
	lowerName := strings.ToLower(fileName)
	for _, dir := range r.dirs {
		direct := filepath.Join(dir, fileName)
		if _, err := os.Stat(direct); err == nil {
			return direct
		}
		// Case-insensitive match, common on Linux font dirs.
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if strings.EqualFold(entry.Name(), lowerName) {
				return filepath.Join(dir, entry.Name())
			}
		}
	}
	return ""
}

func systemFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		return []string{filepath.Join(windir, "Fonts")}
	case "darwin":
		return []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			filepath.Join(home, "Library", "Fonts"),
		}
	default:
		return []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
		}
	}
}
