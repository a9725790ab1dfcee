package emotion

import (
	"errors"
	"testing"
)

func TestDecodeResultSingle(t *testing.T) {
	result, err := DecodeResult([]byte(`{"dominant_emotion":"Happy","emotion":{"happy":91.2}}`))
	if err != nil {
		t.Fatalf("DecodeResult err: %v", err)
	}
	if result.IsCollection() {
		t.Fatal("expected single result")
	}

	record, err := result.First()
	if err != nil || record.Dominant() != Happy {
		t.Fatalf("expected happy, got %s (%v)", record.Dominant(), err)
	}
}

func TestDecodeResultCollectionUsesFirst(t *testing.T) {
	result, err := DecodeResult([]byte(`[{"dominant_emotion":"sad"},{"dominant_emotion":"angry"}]`))
	if err != nil {
		t.Fatalf("DecodeResult err: %v", err)
	}
	if !result.IsCollection() {
		t.Fatal("expected collection")
	}

	record, _ := result.First()
	if label := record.Dominant(); label != Sad {
		t.Fatalf("expected first entry sad, got %s", label)
	}
}

func TestDecodeResultWrapped(t *testing.T) {
	result, err := DecodeResult([]byte(`{"results":[{"dominant_emotion":"surprise"}]}`))
	if err != nil {
		t.Fatalf("DecodeResult err: %v", err)
	}

	record, _ := result.First()
	if label := record.Dominant(); label != Surprise {
		t.Fatalf("expected surprise, got %s", label)
	}
}

func TestDominantDefaultsToNeutral(t *testing.T) {
	if label := (Record{}).Dominant(); label != Neutral {
		t.Fatalf("expected neutral, got %s", label)
	}
}

func TestDecodeResultFaceConfidence(t *testing.T) {
	result, err := DecodeResult([]byte(`[{"dominant_emotion":"fear","face_confidence":0.91}]`))
	if err != nil {
		t.Fatalf("DecodeResult err: %v", err)
	}
	record, _ := result.First()
	if record.FaceConfidence != 0.91 {
		t.Fatalf("unexpected face confidence: %v", record.FaceConfidence)
	}
}

func TestFirstEmptyCollection(t *testing.T) {
	_, err := MultiResult(nil).First()
	if !errors.Is(err, ErrNoFaces) {
		t.Fatalf("expected ErrNoFaces, got %v", err)
	}
}

func TestDecodeResultRejectsScalars(t *testing.T) {
	for _, payload := range []string{"", "42", `"happy"`} {
		if _, err := DecodeResult([]byte(payload)); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestParseLabelAliases(t *testing.T) {
	cases := map[string]Label{
		"Happiness": Happy,
		" FEAR ":    Fear,
		"contempt":  Label("contempt"),
		"":          Neutral,
	}
	for in, want := range cases {
		if got := ParseLabel(in); got != want {
			t.Fatalf("ParseLabel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestSentinel(t *testing.T) {
	for _, l := range []Label{Unavailable, Missing, Failed} {
		if !l.Sentinel() {
			t.Fatalf("%s should be a sentinel", l)
		}
	}
	if Happy.Sentinel() {
		t.Fatal("happy is not a sentinel")
	}
}
