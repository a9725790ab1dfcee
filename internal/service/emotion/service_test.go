package emotion

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"strings"
	"testing"

	analysis "github.com/examease/backend/internal/analysis/emotion"
)

type fakeDetector struct {
	calls int
	faces []Face
}

func (f *fakeDetector) DetectFaces(image.Image) []Face {
	f.calls++
	return f.faces
}

type fakeClassifier struct {
	calls  int
	result analysis.Result
	err    error
	panics bool
}

func (f *fakeClassifier) Classify(context.Context, *analysis.Frame) (analysis.Result, error) {
	f.calls++
	if f.panics {
		panic("backend exploded")
	}
	return f.result, f.err
}

func snapshot(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 4), B: uint8(y * 4), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode err: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestInferUnavailableWithoutDetector(t *testing.T) {
	classifier := &fakeClassifier{}
	svc := NewService(nil, classifier, 0)

	if got := svc.Infer(context.Background(), snapshot(t)); got != analysis.Unavailable {
		t.Fatalf("expected %s, got %s", analysis.Unavailable, got)
	}
	if classifier.calls != 0 {
		t.Fatal("classifier must not run when the detector is unavailable")
	}
}

func TestInferNilService(t *testing.T) {
	var svc *Service
	if got := svc.Infer(context.Background(), "abc"); got != analysis.Unavailable {
		t.Fatalf("expected %s, got %s", analysis.Unavailable, got)
	}
}

func TestInferMissingImage(t *testing.T) {
	svc := NewService(&fakeDetector{}, &fakeClassifier{}, 0)

	if got := svc.Infer(context.Background(), "data:image/jpeg;base64,"); got != analysis.Missing {
		t.Fatalf("expected %s, got %s", analysis.Missing, got)
	}
}

func TestInferGarbageImage(t *testing.T) {
	classifier := &fakeClassifier{}
	svc := NewService(&fakeDetector{}, classifier, 0)

	if got := svc.Infer(context.Background(), "data:image/jpeg;base64,definitely-not-an-image"); got != analysis.Failed {
		t.Fatalf("expected %s, got %s", analysis.Failed, got)
	}
	if classifier.calls != 0 {
		t.Fatal("classifier must not run on undecodable input")
	}
}

func TestInferClassifiesWithoutFaces(t *testing.T) {
	detector := &fakeDetector{}
	classifier := &fakeClassifier{result: analysis.SingleResult(analysis.Record{DominantEmotion: "happy"})}
	svc := NewService(detector, classifier, 0)

	if got := svc.Infer(context.Background(), snapshot(t)); got != analysis.Happy {
		t.Fatalf("expected happy, got %s", got)
	}
	if detector.calls != 1 {
		t.Fatalf("expected face pre-check to run once, got %d", detector.calls)
	}
	if classifier.calls != 1 {
		t.Fatal("classification must run even when no face was detected")
	}
}

func TestInferUsesFirstOfCollection(t *testing.T) {
	classifier := &fakeClassifier{result: analysis.MultiResult([]analysis.Record{
		{DominantEmotion: "fear"},
		{DominantEmotion: "happy"},
	})}
	svc := NewService(&fakeDetector{faces: []Face{{Score: 9}}}, classifier, 0)

	if got := svc.Infer(context.Background(), snapshot(t)); got != analysis.Fear {
		t.Fatalf("expected fear, got %s", got)
	}
}

func TestInferLogsFaceConfidence(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	classifier := &fakeClassifier{result: analysis.SingleResult(analysis.Record{DominantEmotion: "sad", FaceConfidence: 0.87})}
	svc := NewService(&fakeDetector{faces: []Face{{Score: 7}}}, classifier, 0)

	if got := svc.Infer(context.Background(), snapshot(t)); got != analysis.Sad {
		t.Fatalf("expected sad, got %s", got)
	}
	if out := buf.String(); !strings.Contains(out, "face_confidence=0.87") || !strings.Contains(out, "faces_detected=1") {
		t.Fatalf("expected confidence in log output, got %q", out)
	}
}

func TestInferClassifierFailure(t *testing.T) {
	svc := NewService(&fakeDetector{}, &fakeClassifier{err: errors.New("timeout")}, 0)
	if got := svc.Infer(context.Background(), snapshot(t)); got != analysis.Failed {
		t.Fatalf("expected %s, got %s", analysis.Failed, got)
	}

	svc = NewService(&fakeDetector{}, &fakeClassifier{result: analysis.MultiResult(nil)}, 0)
	if got := svc.Infer(context.Background(), snapshot(t)); got != analysis.Failed {
		t.Fatalf("expected %s for empty collection, got %s", analysis.Failed, got)
	}
}

func TestInferRecoversFromPanic(t *testing.T) {
	svc := NewService(&fakeDetector{}, &fakeClassifier{panics: true}, 0)
	if got := svc.Infer(context.Background(), snapshot(t)); got != analysis.Failed {
		t.Fatalf("expected %s, got %s", analysis.Failed, got)
	}
}

func TestNote(t *testing.T) {
	if note := Note(analysis.Sad); !strings.Contains(note, "sad") {
		t.Fatalf("expected label in note, got %q", note)
	}
	if note := Note(analysis.Failed); strings.Contains(note, string(analysis.Failed)) {
		t.Fatalf("sentinel label must not leak into the note, got %q", note)
	}
}
