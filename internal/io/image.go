package ioutils

import (
	"bytes"
	"context"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// ImageService prepares feed cover art for saving and tag embedding.
//
// Example usage:
//
//	svc := NewImageService()
//	art, _ := client.DownloadBytes(ctx, feed.ImageURL)
//	jpeg, err := svc.PrepareCoverArt(ctx, art, 1000)
type ImageService struct {
	// Quality is the JPEG quality used when re-encoding.
	Quality int
}

// NewImageService creates a new ImageService with 90% JPEG quality.
func NewImageService() *ImageService {
	return &ImageService{Quality: 90}
}

// PrepareCoverArt shrinks the image to fit within maxSize×maxSize and returns it
// as JPEG. A maxSize of zero or less only converts the format.
func (s *ImageService) PrepareCoverArt(ctx context.Context, data []byte, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		return s.ConvertToJPEG(ctx, data)
	}
	return s.ResizeImage(ctx, data, maxSize, maxSize)
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved and images already within bounds keep their
// size. The result is always JPEG-encoded. Catmull-Rom is used for scaling.
//
// Example:
//
//	// A 1500x1000 image becomes 1000x666
//	resized, err := svc.ResizeImage(ctx, imageData, 1000, 1000)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return s.encode(dst)
}

// ConvertToJPEG re-encodes an image (JPEG, PNG, GIF) as JPEG.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return s.encode(img)
}

func (s *ImageService) encode(img image.Image) ([]byte, error) {
	quality := s.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitWithin scales width×height down to fit maxWidth×maxHeight keeping the ratio.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		width = int(float64(maxHeight) * ratio)
		height = maxHeight
	} else {
		height = int(float64(maxWidth) / ratio)
		width = maxWidth
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}
