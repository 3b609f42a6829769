package validation

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"strings"
	"unicode/utf8"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // register WebP decoder

	"chirp/internal/models"
)

const (
	// MaxPostImages is the attachment limit per post.
	MaxPostImages = 10
	// MaxPostImageBytes is the size limit per post attachment.
	MaxPostImageBytes = 5 * 1024 * 1024
	// MaxProfilePictureBytes is the size limit for profile pictures.
	MaxProfilePictureBytes = 1 * 1024 * 1024

	maxTagLen = 50
)

// ValidatePostText checks the text of a post or reply. Length is counted in
// runes, matching what users perceive as characters.
func ValidatePostText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("post text cannot be empty")
	}
	if utf8.RuneCountInString(text) > models.MaxPostTextLen {
		return fmt.Errorf("post text must not exceed %d characters", models.MaxPostTextLen)
	}
	return nil
}

// ValidateTagName checks a single tag label.
func ValidateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxTagLen {
		return fmt.Errorf("tag must not exceed %d characters", maxTagLen)
	}
	return nil
}

// ValidateImage checks that content is a decodable image no larger than
// maxBytes. The content type is sniffed, never trusted from the client.
func ValidateImage(content []byte, maxBytes int64) error {
	if len(content) == 0 {
		return fmt.Errorf("no file uploaded")
	}
	if int64(len(content)) > maxBytes {
		return fmt.Errorf("image too large (max %dMB)", maxBytes/(1024*1024))
	}

	detected := http.DetectContentType(content)
	if !strings.HasPrefix(detected, "image/") {
		return fmt.Errorf("invalid image type")
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(content)); err != nil {
		return fmt.Errorf("invalid image file")
	}
	return nil
}
