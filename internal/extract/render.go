package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/po-matcher/constants"
	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/document"
)

// Renderer produces a PNG of a document's first page.
type Renderer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewRenderer(cfg Config, runner Runner, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Renderer{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

// RenderFirstPage rasterizes page 1 of a PDF, or decodes an image directly,
// then orients and bounds it. Every failure is a rendering failure.
func (r *Renderer) RenderFirstPage(ctx context.Context, src document.Source) ([]byte, error) {
	start := time.Now()
	data := src.Data
	switch src.Format() {
	case constants.PDF:
		png, err := r.pdftoppm(ctx, src.Data)
		if err != nil {
			r.logger.Error("extract.render.pdf_failed", "name", src.Name, "error", err)
			return nil, common.RenderingFailure(fmt.Sprintf("convert %s to image", src.Name), err)
		}
		data = png
	case constants.IMAGE:
		if constants.IsHEIC(filepath.Ext(src.Name)) {
			png, err := r.convertHEIC(ctx, src.Data)
			if err != nil {
				r.logger.Error("extract.render.heic_failed", "name", src.Name, "converter", r.cfg.HeicConverter, "error", err)
				return nil, common.RenderingFailure(fmt.Sprintf("convert %s to image", src.Name), err)
			}
			data = png
		}
	default:
		return nil, common.RenderingFailure(fmt.Sprintf("unsupported document %q", src.Name), nil)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, common.RenderingFailure(fmt.Sprintf("decode %s", src.Name), err)
	}
	img = bound(img, r.cfg.MaxImageDim)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, common.RenderingFailure(fmt.Sprintf("encode %s", src.Name), err)
	}
	b := img.Bounds()
	r.logger.Info("extract.render.ok",
		"name", src.Name,
		"width", b.Dx(),
		"height", b.Dy(),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (r *Renderer) pdftoppm(ctx context.Context, data []byte) ([]byte, error) {
	dir, cleanup, err := scratchDir(r.cfg.TmpDir, r.logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png -f 1 -l 1 -singlefile <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm,
		"-r", strconv.Itoa(r.cfg.DPI), "-png", "-f", "1", "-l", "1", "-singlefile", in, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}
	png, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image: %w", err)
	}
	return png, nil
}

func (r *Renderer) convertHEIC(ctx context.Context, data []byte) ([]byte, error) {
	dir, cleanup, err := scratchDir(r.cfg.TmpDir, r.logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	in := filepath.Join(dir, "in.heic")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp heic: %w", err)
	}
	out := filepath.Join(dir, "page.png")

	var args []string
	switch filepath.Base(r.cfg.HeicConverter) {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return nil, fmt.Errorf("unknown heic converter %q: use heif-convert, magick or sips", r.cfg.HeicConverter)
	}
	if _, errb, err := r.runner.Run(ctx, r.cfg.HeicConverter, args...); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", r.cfg.HeicConverter, err, truncate(string(errb), 512))
	}
	png, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("heic conversion produced no output: %w", err)
	}
	return png, nil
}

// bound scales img down so neither side exceeds max. Smaller images are left alone.
func bound(img image.Image, max int) image.Image {
	b := img.Bounds()
	if max <= 0 || (b.Dx() <= max && b.Dy() <= max) {
		return img
	}
	return imaging.Fit(img, max, max, imaging.Lanczos)
}
