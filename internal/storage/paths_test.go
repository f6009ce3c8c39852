package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPhotoKeysDeterministic(t *testing.T) {
	circle := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	visit := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	ts := time.UnixMilli(1700000000000)

	p1, t1 := PhotoKeys(circle, visit, ts, "image/jpeg")
	p2, t2 := PhotoKeys(circle, visit, ts, "image/jpeg")

	assert.Equal(t, p1, p2)
	assert.Equal(t, t1, t2)
	assert.Equal(t, "photos/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222/1700000000000_photo.jpg", p1)
	assert.Equal(t, "photos/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222/1700000000000_thumb.jpg", t1)
	assert.True(t, strings.HasPrefix(p1, PhotoPrefix(circle)))
}

func TestVoiceKey(t *testing.T) {
	circle := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	visit := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	ts := time.UnixMilli(1700000000000)

	key := VoiceKey(circle, visit, ts, "audio/webm;codecs=opus")
	assert.Equal(t, "voice/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222/1700000000000_note.webm", key)
}

func TestAudioExtension(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"audio/webm", "webm"},
		{"audio/webm;codecs=opus", "webm"},
		{"audio/mp4", "m4a"},
		{"video/mp4", "m4a"},
		{"audio/wav", "wav"},
		{"audio/x-wav", "wav"},
		{"audio/ogg", "bin"},
		{"", "bin"},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, AudioExtension(tt.mime))
		})
	}
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, "jpg", ImageExtension("image/jpeg"))
	assert.Equal(t, "png", ImageExtension("image/png"))
	assert.Equal(t, "webp", ImageExtension("image/webp"))
	assert.Equal(t, "jpg", ImageExtension("application/octet-stream"))
}

func TestKeysDifferAcrossTimestamps(t *testing.T) {
	circle := uuid.New()
	visit := uuid.New()

	p1, _ := PhotoKeys(circle, visit, time.UnixMilli(1), "image/jpeg")
	p2, _ := PhotoKeys(circle, visit, time.UnixMilli(2), "image/jpeg")
	assert.NotEqual(t, p1, p2)
}
