package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/stylistio/tryon-backend/internal/tryon"
)

func personPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture png: %v", err)
	}
	return buf.Bytes()
}

// tryOnRequest builds a multipart POST /virtual-try-on body from file parts
// and plain form fields.
func tryOnRequest(t *testing.T, files map[string][]byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := writer.CreateFormFile(name, name+".png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write form field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/virtual-try-on", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newTryOnRouter(t *testing.T, svc *tryon.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &Handlers{TryOn: svc}
	router := gin.New()
	router.POST("/virtual-try-on", h.VirtualTryOn)
	return router
}

func configuredService(t *testing.T, assetsDir string) *tryon.Service {
	t.Helper()
	client, err := genai.NewClient(context.Background(), option.WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("create test client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return tryon.NewService(client, "gemini-2.0-flash-image", assetsDir)
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body %q: %v", w.Body, err)
	}
	return body["error"]
}

func TestVirtualTryOnMissingUserImage(t *testing.T) {
	router := newTryOnRouter(t, tryon.NewService(nil, "gemini-2.0-flash-image", t.TempDir()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, tryOnRequest(t, nil, map[string]string{"garment_type": "shirt"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := errorMessage(t, w); !strings.Contains(msg, "user_image") {
		t.Errorf("error = %q, want mention of user_image", msg)
	}
}

func TestVirtualTryOnMissingGarmentType(t *testing.T) {
	router := newTryOnRouter(t, tryon.NewService(nil, "gemini-2.0-flash-image", t.TempDir()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, tryOnRequest(t, map[string][]byte{"user_image": personPNG(t)}, nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := errorMessage(t, w); !strings.Contains(msg, "garment_type") {
		t.Errorf("error = %q, want mention of garment_type", msg)
	}
}

func TestVirtualTryOnMissingGarmentSource(t *testing.T) {
	router := newTryOnRouter(t, tryon.NewService(nil, "gemini-2.0-flash-image", t.TempDir()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, tryOnRequest(t,
		map[string][]byte{"user_image": personPNG(t)},
		map[string]string{"garment_type": "shirt"},
	))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body: %s", w.Code, w.Body)
	}
	if msg := errorMessage(t, w); !strings.Contains(msg, "garment_image or garment_image_url") {
		t.Errorf("error = %q, want the either-source message", msg)
	}
}

func TestVirtualTryOnNotConfigured(t *testing.T) {
	router := newTryOnRouter(t, tryon.NewService(nil, "gemini-2.0-flash-image", t.TempDir()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, tryOnRequest(t,
		map[string][]byte{"user_image": personPNG(t), "garment_image": personPNG(t)},
		map[string]string{"garment_type": "shirt"},
	))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body: %s", w.Code, w.Body)
	}
	if msg := errorMessage(t, w); !strings.Contains(msg, "not configured") {
		t.Errorf("error = %q, want not-configured message", msg)
	}
}

func TestVirtualTryOnGarmentReferenceNotFound(t *testing.T) {
	router := newTryOnRouter(t, configuredService(t, t.TempDir()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, tryOnRequest(t,
		map[string][]byte{"user_image": personPNG(t)},
		map[string]string{
			"garment_type":      "shirt",
			"garment_image_url": "/catalog-images/men/ghost-shirt.jpg",
		},
	))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body: %s", w.Code, w.Body)
	}
	if msg := errorMessage(t, w); !strings.Contains(msg, "not found") {
		t.Errorf("error = %q, want not-found message", msg)
	}
}

func TestVirtualTryOnUndecodableUserImage(t *testing.T) {
	router := newTryOnRouter(t, configuredService(t, t.TempDir()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, tryOnRequest(t,
		map[string][]byte{"user_image": []byte("junk"), "garment_image": personPNG(t)},
		map[string]string{"garment_type": "shirt"},
	))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body: %s", w.Code, w.Body)
	}
	if msg := errorMessage(t, w); !strings.Contains(msg, "not a valid image") {
		t.Errorf("error = %q, want invalid-image message", msg)
	}
}
