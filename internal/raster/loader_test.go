package raster

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImageFile writes a solid color PNG and returns its path.
// The caller is responsible for removing the file.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "raster-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, createTestImage(width, height, c)); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

func TestCache_Load(t *testing.T) {
	cache := NewCache()
	imgPath := createTestImageFile(t, 100, 60, color.RGBA{255, 0, 0, 255})
	defer os.Remove(imgPath)

	r1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r1.Width != 100 || r1.Height != 60 {
		t.Errorf("dimensions: got %dx%d, want 100x60", r1.Width, r1.Height)
	}
	if cr, cg, cb := r1.RGB(50, 30); cr != 255 || cg != 0 || cb != 0 {
		t.Errorf("RGB: got (%d,%d,%d), want (255,0,0)", cr, cg, cb)
	}

	r2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if r1 != r2 {
		t.Error("second Load did not return cached raster")
	}
}

func TestCache_Load_NonExistent(t *testing.T) {
	cache := NewCache()
	if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}
}

func TestCache_Load_InvalidImage(t *testing.T) {
	cache := NewCache()

	tmpFile, err := os.CreateTemp("", "invalid-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.WriteString("not an image")
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	if _, err := cache.Load(tmpFile.Name()); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestCache_EvictAndClear(t *testing.T) {
	cache := NewCache()
	imgPath := createTestImageFile(t, 20, 20, color.RGBA{0, 255, 0, 255})
	defer os.Remove(imgPath)

	if _, err := cache.Load(imgPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cache.Evict(imgPath)
	cache.mu.RLock()
	_, exists := cache.rasters[imgPath]
	cache.mu.RUnlock()
	if exists {
		t.Error("Evict did not remove raster from cache")
	}

	cache.Evict("/nonexistent/path") // must not panic

	if _, err := cache.Load(imgPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Clear()
	cache.mu.RLock()
	count := len(cache.rasters)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("Clear did not empty cache: %d rasters remain", count)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache()
	imgPath := createTestImageFile(t, 50, 50, color.RGBA{128, 128, 128, 255})
	defer os.Remove(imgPath)

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadInfo(t *testing.T) {
	cache := NewCache()
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{255, 128, 64, 255})
	defer os.Remove(imgPath)

	info, err := LoadInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadInfo failed: %v", err)
	}
	if info.Width != 200 || info.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

func TestLoadInfo_FormatDetection(t *testing.T) {
	cache := NewCache()

	tests := []struct {
		ext    string
		format string
	}{
		{".png", "png"},
		{".jpg", "jpeg"},
		{".JPEG", "jpeg"},
		{".gif", "gif"},
		{".tif", "tiff"},
		{".xyz", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			tmpPath := filepath.Join(t.TempDir(), "test-format"+tt.ext)

			// The decoder sniffs content, so a PNG body works for every extension.
			f, err := os.Create(tmpPath)
			if err != nil {
				t.Fatalf("failed to create file: %v", err)
			}
			png.Encode(f, image.NewRGBA(image.Rect(0, 0, 10, 10)))
			f.Close()

			info, err := LoadInfo(cache, tmpPath)
			if err != nil {
				t.Fatalf("LoadInfo failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("Format for %s: got %s, want %s", tt.ext, info.Format, tt.format)
			}
		})
	}
}
