package ai

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

type imagePart struct {
	MIMEType string
	Base64   string
}

// splitParts flattens a message into its text and inline images. Plain
// messages yield Content only.
func splitParts(msg *schema.Message) (string, []imagePart, error) {
	if len(msg.MultiContent) == 0 {
		return msg.Content, nil, nil
	}

	var text []string
	if msg.Content != "" {
		text = append(text, msg.Content)
	}

	var images []imagePart
	for _, part := range msg.MultiContent {
		switch part.Type {
		case schema.ChatMessagePartTypeText:
			text = append(text, part.Text)
		case schema.ChatMessagePartTypeImageURL:
			if part.ImageURL == nil {
				continue
			}
			img, err := parseDataURL(part.ImageURL.URL)
			if err != nil {
				return "", nil, err
			}
			images = append(images, img)
		}
	}
	return strings.Join(text, "\n"), images, nil
}

func parseDataURL(url string) (imagePart, error) {
	if !strings.HasPrefix(url, "data:") {
		return imagePart{}, fmt.Errorf("only inline data URLs are supported")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(url, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return imagePart{}, fmt.Errorf("malformed data URL")
	}

	mime := strings.TrimSuffix(header, ";base64")
	if mime == "" {
		mime = "image/jpeg"
	}
	return imagePart{MIMEType: mime, Base64: payload}, nil
}

func (p imagePart) bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.Base64)
}
