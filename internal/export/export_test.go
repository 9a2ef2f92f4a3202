package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcbimage "pcb-viacv/internal/image"
	"pcb-viacv/internal/via"
	"pcb-viacv/pkg/colorutil"
	"pcb-viacv/pkg/geometry"
)

func testVias() []via.Via {
	return []via.Via{
		{Anchor: geometry.Pt(240, 1133), Round: 0, Score: 255},
		{Anchor: geometry.Pt(5, 7), Round: 1, Score: 230},
	}
}

func TestWriteCoords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCoords(&buf, testVias()))
	assert.Equal(t, "(240,1133)\n(5,7)\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteCoords(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestSaveCoords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, SaveCoords(path, testVias()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "(240,1133)\n(5,7)\n", string(data))

	assert.Error(t, SaveCoords(filepath.Join(t.TempDir(), "missing", "out.txt"), nil))
}

func blankRaster(w, h int) *pcbimage.Raster {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+3] = 255
	}
	return pcbimage.NewRaster(img)
}

func TestAnnotate_CircleInsideAnchorSquare(t *testing.T) {
	raster := blankRaster(60, 60)
	vias := []via.Via{{Anchor: geometry.Pt(10, 10)}}

	img := Annotate(raster, vias, 28, DefaultAnnotateOptions())
	require.Equal(t, image.Rect(0, 0, 60, 60), img.Bounds())

	// Extremes of the circle touch the square's edges at the centre row/column.
	assert.Equal(t, colorutil.Red, img.RGBAAt(24, 10))
	assert.Equal(t, colorutil.Red, img.RGBAAt(10, 24))
	assert.Equal(t, colorutil.Red, img.RGBAAt(38, 24))
	// Centre and square corners are untouched.
	assert.Equal(t, colorutil.Black, img.RGBAAt(24, 24))
	assert.Equal(t, colorutil.Black, img.RGBAAt(10, 10))

	// The raster itself is not drawn on.
	r, g, b := raster.RGB(24, 10)
	assert.Zero(t, int(r)+int(g)+int(b))
}

func TestAnnotate_ThicknessAndClipping(t *testing.T) {
	raster := blankRaster(30, 30)
	opts := AnnotateOptions{Color: colorutil.Cyan, Thickness: 3}
	// A via hanging off the bottom-right corner must not panic.
	img := Annotate(raster, []via.Via{{Anchor: geometry.Pt(20, 20)}, {Anchor: geometry.Pt(2, 2)}}, 28, opts)

	for _, x := range []int{2, 3, 4} {
		assert.Equal(t, colorutil.Cyan, img.RGBAAt(x, 16), "x=%d", x)
	}
	assert.Equal(t, colorutil.Black, img.RGBAAt(5, 16))
}

func TestRenderScoreMap(t *testing.T) {
	sm := &via.ScoreMap{Width: 3, Height: 2, Scores: []byte{10, 20, 30, 40, 50, 60}}
	img := RenderScoreMap(sm, 10, 10, 4)

	assert.Equal(t, colorutil.Gray(10), img.RGBAAt(2, 2))
	assert.Equal(t, colorutil.Gray(30), img.RGBAAt(4, 2))
	assert.Equal(t, colorutil.Gray(40), img.RGBAAt(2, 3))
	assert.Equal(t, colorutil.Gray(60), img.RGBAAt(4, 3))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(9, 9))

	empty := RenderScoreMap(nil, 5, 5, 4)
	assert.Equal(t, color.RGBA{A: 255}, empty.RGBAAt(2, 2))
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.png")
	src := RenderScoreMap(&via.ScoreMap{Width: 1, Height: 1, Scores: []byte{200}}, 4, 4, 2)
	require.NoError(t, SavePNG(path, src))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	r, _, _, _ := decoded.At(1, 1).RGBA()
	assert.Equal(t, uint32(200)*0x101, r)
}

func TestReport_SaveLoad(t *testing.T) {
	result := &via.DetectionResult{
		Vias:   testVias(),
		Rounds: []via.RoundStats{{Round: 1, Profiles: 1, Scanned: 100, Candidates: 3, Accepted: 1}},
		Params: via.DefaultParams(),
	}
	report := NewReport(result, "front.jpg", "")
	assert.Equal(t, geometry.Point2D{X: 254, Y: 1147}, report.Vias[0].Center)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, report.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outer_diameter": 28`)
	assert.NotContains(t, string(data), `"mask"`)

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, []geometry.PointInt{{X: 240, Y: 1133}, {X: 5, Y: 7}}, loaded.Anchors())
	assert.Equal(t, 1, loaded.Vias[1].Round)
	assert.Equal(t, byte(230), loaded.Vias[1].Score)
	assert.Equal(t, 0, loaded.Params.Workers, "workers are not recorded")
	assert.Equal(t, result.Rounds, loaded.Rounds)

	require.NoError(t, os.WriteFile(path, []byte(`{"version": 9}`), 0o644))
	_, err = LoadReport(path)
	assert.Error(t, err)
}
