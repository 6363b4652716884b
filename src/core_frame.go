package main

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Placement is where a scaled photo sits inside a video frame
type Placement struct {
	Width, Height int
	PadTop        int
	PadBottom     int
	PadLeft       int
	PadRight      int
}

// Rect is the destination rectangle of the scaled photo
func (p Placement) Rect() image.Rectangle {
	return image.Rect(p.PadLeft, p.PadTop, p.PadLeft+p.Width, p.PadTop+p.Height)
}

// Letterbox fits an imgW×imgH photo into videoW×videoH without stretching it.
// Relatively wider photos fill the width and get top/bottom bars, everything
// else fills the height and gets side bars. The odd pixel goes to bottom/right.
func Letterbox(imgW, imgH, videoW, videoH int) Placement {
	videoAspect := float64(videoW) / float64(videoH)
	imageAspect := float64(imgW) / float64(imgH)

	var p Placement
	if imageAspect > videoAspect {
		p.Width = videoW
		p.Height = max(1, int(float64(p.Width)/imageAspect))
		p.PadTop = (videoH - p.Height) / 2
		p.PadBottom = videoH - p.Height - p.PadTop
	} else {
		p.Height = videoH
		p.Width = max(1, int(float64(p.Height)*imageAspect))
		p.PadLeft = (videoW - p.Width) / 2
		p.PadRight = videoW - p.Width - p.PadLeft
	}
	return p
}

// decodePhoto opens and decodes any registered image format
func decodePhoto(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("image has no pixels")
	}
	return img, nil
}

// ComposeFrame scales src into a black videoW×videoH canvas
func ComposeFrame(src image.Image, videoW, videoH int) (*image.RGBA, Placement) {
	b := src.Bounds()
	p := Letterbox(b.Dx(), b.Dy(), videoW, videoH)

	dst := image.NewRGBA(image.Rect(0, 0, videoW, videoH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, p.Rect(), src, b, draw.Over, nil)
	return dst, p
}

// composeFile decodes path and writes its composed frame as a PNG to framePath
func composeFile(path, framePath string, videoW, videoH int) (Placement, error) {
	img, err := decodePhoto(path)
	if err != nil {
		return Placement{}, err
	}

	frame, p := ComposeFrame(img, videoW, videoH)

	out, err := os.Create(framePath)
	if err != nil {
		return Placement{}, fmt.Errorf("create frame: %w", err)
	}
	bw := bufio.NewWriterSize(out, 1<<20)
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(bw, frame); err != nil {
		out.Close()
		return Placement{}, fmt.Errorf("encode frame: %w", err)
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		return Placement{}, fmt.Errorf("write frame: %w", err)
	}
	if err := out.Close(); err != nil {
		return Placement{}, fmt.Errorf("close frame: %w", err)
	}
	return p, nil
}
