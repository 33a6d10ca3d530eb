package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/samber/lo"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	bannerSeparator = "    "
	dirLabelLimit   = 30
	dirLabelKeep    = 15
	scanHint        = "Scan the QR code to open it on your phone"
)

var bannerLogo = []string{
	` _     _              ____`,
	`| |   (_)_   _____   / ___|  ___ _ ____   _____ _ __`,
	`| |   | \ \ / / _ \  \___ \ / _ \ '__\ \ / / _ \ '__|`,
	`| |___| |\ V /  __/   ___) |  __/ |   \ V /  __/ |`,
	`|_____|_| \_/ \___|  |____/ \___|_|    \_/ \___|_|`,
}

// renderHalfBlocks folds two matrix rows into one text line. true is a dark
// module.
func renderHalfBlocks(matrix [][]bool) []string {
	lines := make([]string, 0, (len(matrix)+1)/2)
	for y := 0; y < len(matrix); y += 2 {
		top := matrix[y]
		var bottom []bool
		if y+1 < len(matrix) {
			bottom = matrix[y+1]
		}

		var b strings.Builder
		for x, dark := range top {
			lower := bottom != nil && x < len(bottom) && bottom[x]
			switch {
			case dark && lower:
				b.WriteRune('█')
			case dark:
				b.WriteRune('▀')
			case lower:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}
		lines = append(lines, b.String())
	}
	return lines
}

// dirLabel shortens long paths to their first and last 15 characters.
func dirLabel(dir string) string {
	runes := []rune(dir)
	if len(runes) <= dirLabelLimit {
		return dir
	}
	return string(runes[:dirLabelKeep]) + ".." + string(runes[len(runes)-dirLabelKeep:])
}

func statusLines(url, dir string) []string {
	return []string{
		"URL:       " + url,
		"Directory: " + dirLabel(dir),
		scanHint,
	}
}

func displayWidth(lines []string) int {
	if len(lines) == 0 {
		return 0
	}
	return lo.Max(lo.Map(lines, func(l string, _ int) int {
		return uniseg.StringWidth(l)
	}))
}

// normalOutputWidth is the width the side-by-side layout needs.
func normalOutputWidth(matrixWidth int, text []string) int {
	return matrixWidth + len(bannerSeparator) + displayWidth(text)
}

// layoutBanner arranges the rendered matrix and the text for a terminal of
// termWidth columns. A zero width always yields the stacked layout.
func layoutBanner(matrix []string, matrixWidth int, status []string, termWidth int) []string {
	text := append(append([]string{}, bannerLogo...), "")
	text = append(text, status...)

	if termWidth < matrixWidth || termWidth <= normalOutputWidth(matrixWidth, text) {
		out := make([]string, 0, len(status)+len(matrix))
		out = append(out, status...)
		return append(out, matrix...)
	}

	rows := matrix
	if diff := len(text) - len(matrix); diff > 0 {
		blank := strings.Repeat(" ", matrixWidth)
		top := diff / 2
		rows = make([]string, 0, len(text))
		rows = append(rows, lo.Times(top, func(int) string { return blank })...)
		rows = append(rows, matrix...)
		rows = append(rows, lo.Times(diff-top, func(int) string { return blank })...)
	}

	offset := (len(rows) - len(text)) / 2
	out := make([]string, len(rows))
	for i, row := range rows {
		if t := i - offset; t >= 0 && t < len(text) && text[t] != "" {
			out[i] = row + bannerSeparator + text[t]
		} else {
			out[i] = row
		}
	}
	return out
}

// qrMatrix encodes url and returns its modules, quiet zone included.
func qrMatrix(url string) ([][]bool, error) {
	code, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return code.Bitmap(), nil
}

// printBanner writes the QR banner for url. It never fails: the banner is
// decoration and startup goes on without it.
func printBanner(w io.Writer, url, dir string, termWidth int, logger *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("qr banner panicked", zap.Any("panic", r))
		}
	}()

	matrix, err := qrMatrix(url)
	if err != nil {
		logger.Debug("qr banner skipped", zap.Error(err))
		return
	}
	lines := layoutBanner(renderHalfBlocks(matrix), len(matrix), statusLines(url, dir), termWidth)
	if _, err := fmt.Fprintln(w, strings.Join(lines, "\n")); err != nil {
		logger.Debug("qr banner not written", zap.Error(err))
	}
}
