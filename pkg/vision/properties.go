package vision

import (
	"fmt"
	"image"
	"math"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Properties summarizes an image's visual characteristics.
type Properties struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Format         string `json:"format"`
	DominantColor  string `json:"dominantColor"`
	IsDocumentLike bool   `json:"isDocumentLike"`
	AspectRatio    string `json:"aspectRatio"`
}

type namedColor struct {
	name    string
	r, g, b float64
}

var palette = []namedColor{
	{"red", 255, 0, 0},
	{"green", 0, 128, 0},
	{"blue", 0, 0, 255},
	{"yellow", 255, 255, 0},
	{"orange", 255, 165, 0},
	{"purple", 128, 0, 128},
	{"pink", 255, 192, 203},
	{"brown", 139, 69, 19},
	{"black", 0, 0, 0},
	{"white", 255, 255, 255},
	{"gray", 128, 128, 128},
	{"cyan", 0, 255, 255},
	{"teal", 0, 128, 128},
}

// documentThreshold: an image whose channel means all exceed this is mostly
// white space, i.e. a scanned page or screenshot of text.
const documentThreshold = 180

// ReadProperties decodes an image file and computes its dimensions, dominant
// color, and document-likeness.
func ReadProperties(path string) (*Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	meanR, meanG, meanB := channelMeans(img)

	aspect := "0.00"
	if height > 0 {
		aspect = fmt.Sprintf("%.2f", float64(width)/float64(height))
	}

	return &Properties{
		Width:          width,
		Height:         height,
		Format:         format,
		DominantColor:  nearestColor(meanR, meanG, meanB),
		IsDocumentLike: meanR > documentThreshold && meanG > documentThreshold && meanB > documentThreshold,
		AspectRatio:    aspect,
	}, nil
}

// channelMeans averages RGB over a sampled grid; sampling keeps large images
// cheap without changing the verdict.
func channelMeans(img image.Image) (r, g, b float64) {
	bounds := img.Bounds()
	stride := 1
	if pixels := bounds.Dx() * bounds.Dy(); pixels > 10000 {
		stride = int(math.Sqrt(float64(pixels) / 10000))
	}

	var sumR, sumG, sumB, n float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			sumR += float64(pr >> 8)
			sumG += float64(pg >> 8)
			sumB += float64(pb >> 8)
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	return sumR / n, sumG / n, sumB / n
}

func nearestColor(r, g, b float64) string {
	best := palette[0]
	bestDist := math.Inf(1)
	for _, c := range palette {
		dist := (r-c.r)*(r-c.r) + (g-c.g)*(g-c.g) + (b-c.b)*(b-c.b)
		if dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best.name
}
