package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"fx-signal-bot/internal/domain"
	"fx-signal-bot/internal/indicator"
)

const (
	MimeType = "image/png"

	defaultChartWidth  = 960
	defaultChartHeight = 720
	maxChartBars       = 120
)

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colBull       = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colBear       = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colWick       = color.RGBA{R: 58, G: 64, B: 90, A: 255}
	colNeutral    = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colLineA      = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colLineB      = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colBand       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colHistogram  = color.RGBA{R: 120, G: 139, B: 164, A: 255}
)

// Renderer draws a candlestick panel with RSI and MACD panels below it.
type Renderer struct {
	params indicator.Params
	bands  Bands
}

// Bands are the RSI levels drawn as guides in the RSI panel.
type Bands struct {
	Lower float64
	Upper float64
}

func NewRenderer(params indicator.Params, bands Bands) *Renderer {
	if bands.Upper <= bands.Lower {
		bands = Bands{Lower: 30, Upper: 70}
	}
	return &Renderer{params: params, bands: bands}
}

// Render returns a PNG of series with the verdict marked on the latest bar.
func (r *Renderer) Render(series domain.PriceSeries, verdict domain.Verdict) ([]byte, error) {
	bars := series.Bars
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 bars to render chart, got %d", len(bars))
	}

	closes := series.Closes()
	rsi := indicator.RSISeries(closes, r.params.RSIWindow)
	macd, signal := indicator.MACDSeries(closes, r.params.MACDFast, r.params.MACDSlow, r.params.MACDSignal)
	if len(bars) > maxChartBars {
		cut := len(bars) - maxChartBars
		bars = bars[cut:]
		rsi = rsi[cut:]
		macd = macd[cut:]
		signal = signal[cut:]
	}

	img := image.NewRGBA(image.Rect(0, 0, defaultChartWidth, defaultChartHeight))
	fillRect(img, img.Bounds(), colBackground)

	mainRect := image.Rect(60, 20, defaultChartWidth-20, (defaultChartHeight*58)/100)
	rsiRect := image.Rect(60, mainRect.Max.Y+16, defaultChartWidth-20, (defaultChartHeight*78)/100)
	macdRect := image.Rect(60, rsiRect.Max.Y+16, defaultChartWidth-20, defaultChartHeight-20)
	drawGrid(img, mainRect, 8, 6)
	drawGrid(img, rsiRect, 8, 2)
	drawGrid(img, macdRect, 8, 2)

	minPrice, maxPrice := drawCandles(img, mainRect, bars)
	drawVerdictMarker(img, mainRect, bars, minPrice, maxPrice, verdict.Direction)

	drawHorizontalValueLine(img, rsiRect, r.bands.Lower, 0, 100, colBand)
	drawHorizontalValueLine(img, rsiRect, r.bands.Upper, 0, 100, colBand)
	drawSeries(img, rsiRect, rsi, 0, 100, colLineA)

	drawMACD(img, macdRect, macd, signal)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func drawCandles(img *image.RGBA, rect image.Rectangle, bars []domain.Bar) (float64, float64) {
	minPrice := bars[0].Low
	maxPrice := bars[0].High
	for _, b := range bars {
		minPrice = math.Min(minPrice, b.Low)
		maxPrice = math.Max(maxPrice, b.High)
	}
	if maxPrice <= minPrice {
		maxPrice = minPrice + minPrice*0.001 + 1e-6
	}

	candleWidth := max(3, (rect.Dx()-10)/len(bars)-1)
	for i, b := range bars {
		x := mapIndexToX(i, len(bars), rect)
		highY := mapValueToY(b.High, minPrice, maxPrice, rect)
		lowY := mapValueToY(b.Low, minPrice, maxPrice, rect)
		drawLine(img, x, highY, x, lowY, colWick)

		openY := mapValueToY(b.Open, minPrice, maxPrice, rect)
		closeY := mapValueToY(b.Close, minPrice, maxPrice, rect)
		top := min(openY, closeY)
		bottom := max(openY, closeY)
		if bottom-top < 2 {
			bottom = top + 2
		}

		body := image.Rect(x-candleWidth/2, top, x+candleWidth/2+1, bottom+1)
		bodyColor := colBull
		if b.Close < b.Open {
			bodyColor = colBear
		}
		fillRect(img, body, bodyColor)
	}
	return minPrice, maxPrice
}

// drawVerdictMarker draws a vertical line on the latest bar and an arrow:
// up below the low for BUY, down above the high for SELL.
func drawVerdictMarker(img *image.RGBA, rect image.Rectangle, bars []domain.Bar, minPrice, maxPrice float64, dir domain.Direction) {
	last := bars[len(bars)-1]
	x := mapIndexToX(len(bars)-1, len(bars), rect)

	switch dir {
	case domain.DirectionBuy:
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colBull)
		y := mapValueToY(last.Low, minPrice, maxPrice, rect) + 6
		fillTriangle(img, x, y, 7, true, colBull)
	case domain.DirectionSell:
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colBear)
		y := mapValueToY(last.High, minPrice, maxPrice, rect) - 6
		fillTriangle(img, x, y, 7, false, colBear)
	default:
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colNeutral)
	}
}

func drawMACD(img *image.RGBA, rect image.Rectangle, macd, signal []float64) {
	hist := make([]float64, len(macd))
	for i := range macd {
		hist[i] = macd[i] - signal[i]
	}
	minV, maxV := finiteBounds(macd)
	minS, maxS := finiteBounds(signal)
	minH, maxH := finiteBounds(hist)
	minV = math.Min(minV, math.Min(minS, minH))
	maxV = math.Max(maxV, math.Max(maxS, maxH))
	if minV > 0 {
		minV = 0
	}
	if maxV < 0 {
		maxV = 0
	}
	if minV == maxV {
		maxV = minV + 1
	}
	drawBars(img, rect, hist, minV, maxV, colHistogram)
	drawHorizontalValueLine(img, rect, 0, minV, maxV, colBand)
	drawSeries(img, rect, macd, minV, maxV, colLineA)
	drawSeries(img, rect, signal, minV, maxV, colLineB)
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
		}
		lastX, lastY = x, y
	}
}

func drawBars(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	if len(series) == 0 {
		return
	}
	barW := max(1, (rect.Dx()-10)/len(series)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		top := min(y, zeroY)
		bottom := max(y, zeroY)
		fillRect(img, image.Rect(x-barW/2, top, x+barW/2+1, bottom+1), col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawHorizontalValueLine(img *image.RGBA, rect image.Rectangle, value, minV, maxV float64, col color.RGBA) {
	y := mapValueToY(value, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, col)
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if math.IsInf(minV, 1) || math.IsInf(maxV, -1) {
		return 0, 1
	}
	if minV == maxV {
		return minV, maxV + 1
	}
	return minV, maxV
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// fillTriangle draws an isosceles triangle with its apex at (x, y).
func fillTriangle(img *image.RGBA, x, y, size int, up bool, col color.RGBA) {
	for row := 0; row <= size; row++ {
		yy := y + row
		if !up {
			yy = y - row
		}
		drawLine(img, x-row, yy, x+row, yy, col)
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
