package pdfutils

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"

	"github.com/golang/geo/r2"
)

// RasterRect maps a rectangle in PDF user space onto the pixel grid of a page
// rendered at imgWidth pixels across. Raster images have their origin at the
// top left, so the y axis is flipped against the page height.
func RasterRect(rect r2.Rect, pageWidth, pageHeight float64, imgWidth int) image.Rectangle {
	scale := float64(imgWidth) / pageWidth

	return image.Rect(
		int(math.Round(rect.X.Lo*scale)),
		int(math.Round((pageHeight-rect.Y.Lo)*scale)),
		int(math.Round(rect.X.Hi*scale)),
		int(math.Round((pageHeight-rect.Y.Hi)*scale)),
	)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func CropImage(img image.Image, crop image.Rectangle) (image.Image, error) {
	simg, ok := img.(subImager)
	if !ok {
		return nil, fmt.Errorf("image does not support cropping")
	}

	crop = crop.Intersect(img.Bounds())
	if crop.Empty() {
		return nil, fmt.Errorf("crop %v outside image bounds %v", crop, img.Bounds())
	}

	return simg.SubImage(crop), nil
}

func WriteImage(img image.Image, name string, format string, quality int) error {
	if format == "jpg" {
		return writeJPGImage(img, name, quality)
	}

	return writePNGImage(img, name)
}

func writeJPGImage(img image.Image, name string, quality int) error {
	fd, err := os.Create(name)
	if err != nil {
		return err
	}

	if err := jpeg.Encode(fd, img, &jpeg.Options{Quality: quality}); err != nil {
		fd.Close()
		return err
	}

	return fd.Close()
}

func writePNGImage(img image.Image, name string) error {
	fd, err := os.Create(name)
	if err != nil {
		return err
	}

	if err := png.Encode(fd, img); err != nil {
		fd.Close()
		return err
	}

	return fd.Close()
}
