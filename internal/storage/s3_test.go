package storage

import (
	"strings"
	"testing"
)

func TestImageKey(t *testing.T) {
	key := ImageKey("form-1", "Front View.JPG")
	if !strings.HasPrefix(key, "listings/form-1/") {
		t.Errorf("ImageKey() = %q, want listings/form-1/ prefix", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("ImageKey() = %q, want .jpg suffix", key)
	}
	if ImageKey("form-1", "a.png") == ImageKey("form-1", "a.png") {
		t.Error("ImageKey() should be unique per upload")
	}
}
