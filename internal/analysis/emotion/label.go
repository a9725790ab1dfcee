package emotion

import "strings"

// Label 表示一帧画面的主导情绪，或者无法识别时的哨兵值。
type Label string

const (
	Neutral  Label = "neutral"
	Happy    Label = "happy"
	Sad      Label = "sad"
	Angry    Label = "angry"
	Fear     Label = "fear"
	Surprise Label = "surprise"
	Disgust  Label = "disgust"
)

// Sentinels returned instead of a classified emotion.
const (
	// Unavailable means the vision pipeline could not be initialised.
	Unavailable Label = "unknown"
	// Missing means the request carried no image bytes.
	Missing Label = "no_image"
	// Failed means decoding or classification went wrong.
	Failed Label = "error"
)

// Sentinel reports whether l is one of the non-emotion markers.
func (l Label) Sentinel() bool {
	switch l {
	case Unavailable, Missing, Failed:
		return true
	default:
		return false
	}
}

// ParseLabel normalises a backend label. Labels are an open set, so unknown
// values are kept as-is; an empty value means the backend gave no answer.
func ParseLabel(raw string) Label {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "":
		return Neutral
	case "happiness", "joy":
		return Happy
	case "sadness":
		return Sad
	case "anger":
		return Angry
	case "fearful", "scared":
		return Fear
	case "surprised":
		return Surprise
	case "disgusted":
		return Disgust
	default:
		return Label(normalized)
	}
}
