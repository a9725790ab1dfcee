package emotion

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	analysis "github.com/examease/backend/internal/analysis/emotion"
)

// Face is one detected face region.
type Face struct {
	Row, Col, Scale int
	Score           float32
}

// FaceDetector finds faces in a frame.
type FaceDetector interface {
	DetectFaces(img image.Image) []Face
}

// Classifier labels the emotions in a frame. Implementations must not require
// a confidently detected face.
type Classifier interface {
	Classify(ctx context.Context, frame *analysis.Frame) (analysis.Result, error)
}

// Service turns a snapshot into one emotion label. It never returns an error:
// every failure maps to a sentinel label.
type Service struct {
	detector   FaceDetector
	classifier Classifier
	timeout    time.Duration
}

// NewService wires the detector and classifier. A nil detector or classifier
// leaves the service unavailable.
func NewService(detector FaceDetector, classifier Classifier, timeout time.Duration) *Service {
	return &Service{
		detector:   detector,
		classifier: classifier,
		timeout:    timeout,
	}
}

// Available reports whether inference can run at all.
func (s *Service) Available() bool {
	return s != nil && s.detector != nil && s.classifier != nil
}

// Infer returns the dominant emotion for a base64 or data-URL image.
func (s *Service) Infer(ctx context.Context, raw string) (label analysis.Label) {
	if !s.Available() {
		return analysis.Unavailable
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[emotion] inference panicked: %v", r)
			label = analysis.Failed
		}
	}()

	frame, err := analysis.DecodeFrame(raw)
	if errors.Is(err, analysis.ErrNoImage) {
		return analysis.Missing
	}
	if err != nil {
		log.Printf("[emotion] failed to decode snapshot: %v", err)
		return analysis.Failed
	}

	// Detection is informational; classification runs regardless.
	faces := s.detector.DetectFaces(frame.RGB())
	log.Printf("[emotion] face pre-check: %d face(s) in %dx%d %s frame", len(faces), frame.Image.Bounds().Dx(), frame.Image.Bounds().Dy(), frame.Format)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.classifier.Classify(ctx, frame)
	if err != nil {
		log.Printf("[emotion] classification failed: %v", err)
		return analysis.Failed
	}

	record, err := result.First()
	if err != nil {
		log.Printf("[emotion] classification result unusable: %v", err)
		return analysis.Failed
	}

	label = record.Dominant()
	log.Printf("[emotion] dominant=%s face_confidence=%.2f faces_detected=%d", label, record.FaceConfidence, len(faces))
	return label
}

// Note renders the one-off system message that tells the model what the
// snapshot showed.
func Note(label analysis.Label) string {
	if label.Sentinel() {
		return "The user shared a webcam snapshot with this message, but their facial expression could not be determined. Rely on their words alone."
	}
	return fmt.Sprintf("The user's webcam snapshot suggests they currently look %s. Let this gently inform the tone of your reply without claiming you can see them.", label)
}
