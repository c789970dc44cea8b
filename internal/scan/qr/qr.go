// Package qr reads and renders QR codes with gozxing.
package qr

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/vbonduro/storagescout/internal/scan"
)

// Decoder implements scan.Decoder. It is safe for concurrent use.
type Decoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewDecoder() *Decoder {
	return &Decoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode returns the text of the QR code in img, or scan.ErrNoCode when
// none is found.
func (d *Decoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to binarize frame: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		var notFound gozxing.NotFoundException
		if errors.As(err, &notFound) {
			return "", scan.ErrNoCode
		}
		return "", fmt.Errorf("failed to decode qr code: %w", err)
	}
	return result.GetText(), nil
}

// Encode renders payload as a size x size QR code.
func Encode(payload string, size int) (image.Image, error) {
	matrix, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return matrix, nil
}

func WritePNG(w io.Writer, payload string, size int) error {
	img, err := Encode(payload, size)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}
