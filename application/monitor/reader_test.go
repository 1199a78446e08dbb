package monitor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"smartbuyer-go/core/apperr"
	"smartbuyer-go/domain/countdown"
	"smartbuyer-go/domain/settings"
	"smartbuyer-go/infrastructure/ocr"
	"smartbuyer-go/infrastructure/screen"
)

func testScreen() *screen.ImageCapturer {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	return screen.NewImageCapturer(img)
}

func newTestReader(t *testing.T, engine ocr.Engine, formats []string, skip bool) *Reader {
	t.Helper()
	parser, err := countdown.NewParser(formats)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(&ReaderConfig{
		Capturer:      testScreen(),
		Engine:        engine,
		Parser:        parser,
		Region:        settings.Region{X: 10, Y: 10, Width: 100, Height: 40},
		Preprocess:    ocr.DefaultPreprocessOptions(),
		SkipUnchanged: skip,
	})
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	return r
}

func TestReader_Read(t *testing.T) {
	tests := []struct {
		text       string
		recognized bool
		seconds    int
	}{
		{"01:02:03", true, 3723},
		{"05:30", true, 330},
		{"2分05秒", true, 125},
		{"45秒", true, 45},
		{"12", true, 12},
		{" 0 : 0 9 ", true, 9},
		{"", false, 0},
		{"SALE", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := newTestReader(t, &textEngine{text: tt.text}, nil, false)
			got, err := r.Read(context.Background())
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got.Recognized != tt.recognized || got.Seconds != tt.seconds {
				t.Errorf("Read() = %+v, want recognized=%v seconds=%d", got, tt.recognized, tt.seconds)
			}
		})
	}
}

func TestReader_FirstFormatWins(t *testing.T) {
	// "12:30" reads as MM:SS when it comes first, HH:MM when a custom
	// hour-minute format is listed ahead of it.
	hm := `^(?P<h>\d{1,2}):(?P<m>\d{2})$`
	r := newTestReader(t, &textEngine{text: "12:30"}, []string{hm, `^(\d{1,2}):(\d{2})$`}, false)

	got, _ := r.Read(context.Background())
	if got.Seconds != 12*3600+30*60 || got.Format != hm {
		t.Errorf("Read() = %+v, want the first configured format", got)
	}
}

func TestReader_OCRFailure(t *testing.T) {
	r := newTestReader(t, &textEngine{err: errors.New("exit status 1")}, nil, false)

	_, err := r.Read(context.Background())
	if !apperr.IsOCR(err) {
		t.Errorf("Read() error = %v, want OCRError", err)
	}
}

func TestReader_CaptureFailure(t *testing.T) {
	r, err := NewReader(&ReaderConfig{
		Capturer: testScreen(),
		Engine:   &textEngine{text: "5"},
		Region:   settings.Region{X: 390, Y: 290, Width: 100, Height: 40},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Read(context.Background()); !apperr.IsOCR(err) {
		t.Errorf("Read() error = %v, want OCRError for region outside screen", err)
	}
}

func TestReader_ProbeArtifacts(t *testing.T) {
	r := newTestReader(t, &textEngine{text: "00:07"}, nil, false)

	p, err := r.Probe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.Raw == nil || p.Processed == nil {
		t.Fatal("Probe() missing images")
	}
	if got := p.Processed.Bounds().Dx(); got != 200 {
		t.Errorf("processed width = %d, want region scaled 2x", got)
	}
	if p.Reading.Seconds != 7 {
		t.Errorf("seconds = %d, want 7", p.Reading.Seconds)
	}
}

func TestReader_SkipUnchangedFrames(t *testing.T) {
	engine := &textEngine{text: "00:42"}
	r := newTestReader(t, engine, nil, true)

	for i := 0; i < 3; i++ {
		got, err := r.Read(context.Background())
		if err != nil || got.Seconds != 42 {
			t.Fatalf("read %d = %+v, %v", i, got, err)
		}
	}
	if engine.Calls() != 1 {
		t.Errorf("OCR calls = %d, want 1 for identical frames", engine.Calls())
	}

	r.Reset()
	r.Read(context.Background())
	if engine.Calls() != 2 {
		t.Errorf("OCR calls after Reset = %d, want 2", engine.Calls())
	}
}

// strokeFrame is a black 200x40 frame with one white column at x.
func strokeFrame(x int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 200, 40))
	for y := 8; y < 32; y++ {
		img.SetGray(x, y, color.Gray{Y: 255})
	}
	return img
}

func TestReader_SkipUnchangedRereadsShiftedFrame(t *testing.T) {
	frames := &frameSequence{frames: []image.Image{strokeFrame(100), strokeFrame(101)}}
	engine := &sequenceEngine{texts: []string{"1", "0"}}
	r, err := NewReader(&ReaderConfig{
		Capturer:      frames,
		Engine:        engine,
		Region:        settings.Region{X: 0, Y: 0, Width: 200, Height: 40},
		Preprocess:    ocr.DefaultPreprocessOptions(),
		SkipUnchanged: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	first, err := r.Read(context.Background())
	if err != nil || first.Seconds != 1 {
		t.Fatalf("first read = %+v, %v; want 1", first, err)
	}
	second, err := r.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !second.Recognized || second.Seconds != 0 {
		t.Errorf("second read = %+v, want 0 from a fresh OCR pass", second)
	}
	if engine.calls != 2 {
		t.Errorf("OCR calls = %d, want 2", engine.calls)
	}
}

func TestReader_MissesAreNotCached(t *testing.T) {
	engine := &textEngine{text: "--"}
	r := newTestReader(t, engine, nil, true)

	r.Read(context.Background())
	r.Read(context.Background())
	if engine.Calls() != 2 {
		t.Errorf("OCR calls = %d, want every miss re-read", engine.Calls())
	}
}

func TestNewReader_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ReaderConfig
		kind apperr.Kind
	}{
		{"no capturer", ReaderConfig{Engine: &textEngine{}, Region: settings.Region{Width: 1, Height: 1}}, apperr.KindConfiguration},
		{"no engine", ReaderConfig{Capturer: testScreen(), Region: settings.Region{Width: 1, Height: 1}}, apperr.KindOCR},
		{"empty region", ReaderConfig{Capturer: testScreen(), Engine: &textEngine{}}, apperr.KindConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			_, err := NewReader(&cfg)
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("NewReader() error = %v, want %v", err, tt.kind)
			}
		})
	}
}
