package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	c := &S3Client{bucket: "chat", cdnURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/avatars/u1.png", c.PublicURL("avatars/u1.png"))

	c = &S3Client{bucket: "chat", endpoint: "http://minio:9000"}
	assert.Equal(t, "http://minio:9000/chat/avatars/u1.png", c.PublicURL("avatars/u1.png"))

	c = &S3Client{bucket: "chat"}
	assert.Equal(t, "https://chat.s3.amazonaws.com/k", c.PublicURL("k"))
}

func TestAvatarKey(t *testing.T) {
	key := AvatarKey("u1", "Me.PNG")
	assert.True(t, strings.HasPrefix(key, "u1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
}

func TestNewS3ClientRequiresBucket(t *testing.T) {
	_, err := NewS3Client(S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
