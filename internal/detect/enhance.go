package detect

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Enhance prepares a radiograph for upload: grayscale conversion followed by
// contrast-limited adaptive histogram equalization. Low-contrast studies
// detect noticeably better after equalization.
func Enhance(img image.Image) (image.Image, error) {
	mat, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBAToGray)

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(gray, &equalized)

	out, err := equalized.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert result: %w", err)
	}
	return out, nil
}
