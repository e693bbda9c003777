package preprocess

import (
	"fmt"
	"testing"

	"github.com/nvr-ai/go-detect/models"
)

// BenchmarkPreprocessorYOLO runs the full YOLO chain, including stride padding, on camera-sized
// frames. Resize and layout conversion dominate as the input grows.
func BenchmarkPreprocessorYOLO(b *testing.B) {
	for _, size := range []struct{ h, w int }{{480, 640}, {720, 1280}, {1080, 1920}} {
		b.Run(fmt.Sprintf("%dx%d", size.w, size.h), func(b *testing.B) {
			pre, err := NewPreprocessor(yoloSpecs(b), models.ArchYOLO, nil)
			if err != nil {
				b.Fatal(err)
			}
			im := testImage(size.h, size.w)
			defer im.Close()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := pre.Run(im); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkHWCToCHW measures the planar layout conversion alone at the YOLO working size.
func BenchmarkHWCToCHW(b *testing.B) {
	const h, w, c = 608, 608, 3
	src := make([]float32, h*w*c)
	for i := range src {
		src[i] = float32(i % 255)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = hwcToCHW(src, h, w, c, i%2 == 0)
	}
}

// BenchmarkPadPlanar measures stride padding of a CHW buffer from 304x608 to 320x608.
func BenchmarkPadPlanar(b *testing.B) {
	const c, h, w = 3, 304, 608
	src := make([]float32, c*h*w)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = padPlanar(src, c, h, w, alignUp(h, 32), alignUp(w, 32))
	}
}
