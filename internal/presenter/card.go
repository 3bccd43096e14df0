package presenter

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/RPS-KakaoTalk-bot/internal/rps"
)

//go:embed assets/*.svg
var iconFiles embed.FS

const (
	cardWidth   = 480
	cardHeight  = 260
	iconSize    = 128
	cardPadding = 32
	titleBase   = 36
	captionBase = 216
	verdictBase = 244
	iconTop     = 64
)

var (
	cardBackground = color.RGBA{246, 242, 233, 255}
	cardInk        = color.RGBA{40, 42, 48, 255}
	cardWinner     = color.RGBA{214, 236, 206, 255}
	cardLoser      = color.RGBA{236, 216, 212, 255}
	cardNeutral    = color.RGBA{226, 226, 232, 255}
)

// CardSide is one column of the result card.
type CardSide struct {
	Label string
	Move  rps.Move
}

// Card is what the renderer draws: two sides and the verdict from the left side's view.
type Card struct {
	Title   string
	Left    CardSide
	Right   CardSide
	Verdict rps.Verdict
	Caption string
}

// CardRenderer draws result cards as PNG. Icons are rasterized once per move.
type CardRenderer struct {
	mu    sync.RWMutex
	icons map[rps.Move]image.Image
}

func NewCardRenderer() *CardRenderer {
	return &CardRenderer{icons: make(map[rps.Move]image.Image)}
}

func (r *CardRenderer) RenderPNG(ctx context.Context, c Card) ([]byte, error) {
	if !c.Left.Move.Valid() || !c.Right.Move.Valid() {
		return nil, fmt.Errorf("render card: %w", rps.ErrUnknownMove)
	}

	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(cardBackground), image.Point{}, draw.Src)

	leftFill, rightFill := cardNeutral, cardNeutral
	switch c.Verdict {
	case rps.AWins:
		leftFill, rightFill = cardWinner, cardLoser
	case rps.BWins:
		leftFill, rightFill = cardLoser, cardWinner
	}

	half := cardWidth / 2
	columns := []struct {
		side CardSide
		fill color.Color
		x0   int
	}{
		{c.Left, leftFill, 0},
		{c.Right, rightFill, half},
	}
	for _, col := range columns {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		panel := image.Rect(col.x0+cardPadding/2, iconTop-8, col.x0+half-cardPadding/2, iconTop+iconSize+8)
		draw.Draw(img, panel, image.NewUniform(col.fill), image.Point{}, draw.Over)

		icon, err := r.icon(col.side.Move)
		if err != nil {
			return nil, err
		}
		at := image.Pt(col.x0+(half-iconSize)/2, iconTop)
		draw.Draw(img, image.Rectangle{Min: at, Max: at.Add(image.Pt(iconSize, iconSize))}, icon, image.Point{}, draw.Over)

		drawCentered(img, col.x0, half, captionBase, col.side.Label)
	}

	drawCentered(img, 0, cardWidth, titleBase, c.Title)
	drawCentered(img, 0, cardWidth, verdictBase, c.Caption)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *CardRenderer) icon(m rps.Move) (image.Image, error) {
	r.mu.RLock()
	img, ok := r.icons[m]
	r.mu.RUnlock()
	if ok {
		return img, nil
	}

	name := "assets/" + string(m) + ".svg"
	data, err := iconFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read icon %s: %w", name, err)
	}
	svg, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse icon svg: %w", err)
	}
	svg.SetTarget(0, 0, iconSize, iconSize)

	rgba := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	scanner := rasterx.NewScannerGV(iconSize, iconSize, rgba, rgba.Bounds())
	svg.Draw(rasterx.NewDasher(iconSize, iconSize, scanner), 1.0)

	r.mu.Lock()
	r.icons[m] = rgba
	r.mu.Unlock()
	return rgba, nil
}

// drawCentered writes text centered in [x0, x0+width) on baseline y.
// basicfont only covers ASCII, so other runes are dropped.
func drawCentered(dst draw.Image, x0, width, y int, text string) {
	text = asciiOnly(text)
	if text == "" {
		return
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(cardInk), Face: basicfont.Face7x13}
	w := d.MeasureString(text).Round()
	x := x0 + (width-w)/2
	if x < x0 {
		x = x0
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

func asciiOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
