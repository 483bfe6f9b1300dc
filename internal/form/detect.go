package form

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectAudio определяет MIME тип файла по содержимому, а не по расширению.
// Возвращает ErrNotAudio для всего, что не похоже на аудио или видео с дорожкой.
func DetectAudio(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect %s: %w", path, err)
	}

	for m := mt; m != nil; m = m.Parent() {
		t := m.String()
		if strings.HasPrefix(t, "audio/") || strings.HasPrefix(t, "video/") {
			return mt.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotAudio, mt.String())
}

func fileSize(path string) (int64, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}
