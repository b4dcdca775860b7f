package tryon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"

	"github.com/google/generative-ai-go/genai"
)

var (
	// ErrNotConfigured means the service was started without a Gemini API
	// key. Checked before any per-request work.
	ErrNotConfigured = errors.New("Gemini not configured")

	// ErrInvalidInput covers missing or undecodable request images.
	ErrInvalidInput = errors.New("invalid try-on input")

	// ErrGarmentNotFound means a catalog garment reference did not resolve
	// to a file under the images directory.
	ErrGarmentNotFound = errors.New("garment image not found")

	// ErrUpstream covers transport-level failures talking to the model.
	ErrUpstream = errors.New("generation request failed")
)

// GenerationError reports that the model answered but produced no usable
// image. The reason keeps the upstream detail (e.g. that it returned text)
// for diagnostics; callers treat every reason as one failure category.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return e.Reason
}

// generateTimeout bounds the one external call capable of hanging.
const generateTimeout = 2 * time.Minute

// Garment identifies the clothing image for a try-on: either bytes uploaded
// with the request, or a path referencing a catalog image. Exactly one is
// set.
type Garment struct {
	upload []byte
	path   string
}

// UploadedGarment wraps a garment image supplied inline with the request.
func UploadedGarment(data []byte) Garment {
	return Garment{upload: data}
}

// CatalogGarment references a catalog image by its path relative to the
// images directory.
func CatalogGarment(relPath string) Garment {
	return Garment{path: relPath}
}

// Service composes try-on images by delegating to a multimodal Gemini
// model. The client is stateless and shared across concurrent requests; a
// nil client means the feature is unconfigured and every Compose call fails
// with ErrNotConfigured.
type Service struct {
	client    *genai.Client
	model     string
	assetsDir string
}

// NewService builds a composer around an injected Gemini client. Pass a nil
// client when no API key is available; catalog browsing keeps working and
// only the try-on path degrades.
func NewService(client *genai.Client, model, assetsDir string) *Service {
	return &Service{client: client, model: model, assetsDir: assetsDir}
}

// Compose generates a photo of the person wearing the garment. The result
// is always PNG-encoded, whatever the model natively returned.
func (s *Service) Compose(ctx context.Context, personImage []byte, garment Garment, garmentType string) ([]byte, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}

	personJPEG, err := normalizeImage(personImage)
	if err != nil {
		return nil, fmt.Errorf("%w: user image is not a valid image", ErrInvalidInput)
	}

	garmentJPEG, err := s.resolveGarment(garment)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(garmentType)

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	model := s.client.GenerativeModel(s.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.ImageData("jpeg", personJPEG),
		genai.ImageData("jpeg", garmentJPEG),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	raw, err := extractImage(resp)
	if err != nil {
		return nil, err
	}

	out, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &GenerationError{Reason: fmt.Sprintf("model returned undecodable image data: %v", err)}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode result image: %w", err)
	}
	return buf.Bytes(), nil
}

// resolveGarment loads and normalizes the garment image from whichever
// source the request carried.
func (s *Service) resolveGarment(garment Garment) ([]byte, error) {
	if garment.upload != nil {
		data, err := normalizeImage(garment.upload)
		if err != nil {
			return nil, fmt.Errorf("%w: garment image is not a valid image", ErrInvalidInput)
		}
		return data, nil
	}

	if garment.path != "" {
		// References must stay inside the assets directory.
		if strings.Contains(garment.path, "..") {
			return nil, ErrGarmentNotFound
		}
		fullPath := filepath.Join(s.assetsDir, garment.path)
		if _, err := os.Stat(fullPath); err != nil {
			return nil, ErrGarmentNotFound
		}
		raw, err := os.ReadFile(fullPath)
		if err != nil {
			return nil, ErrGarmentNotFound
		}
		data, err := normalizeImage(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: catalog garment file is not a valid image", ErrInvalidInput)
		}
		return data, nil
	}

	return nil, fmt.Errorf("%w: must provide either garment_image or garment_image_url", ErrInvalidInput)
}

// normalizeImage decodes any supported format and re-encodes as JPEG,
// flattening transparency onto white. The model expects plain 3-channel
// input.
func normalizeImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// extractImage walks the model response and returns the first inline image
// payload. Candidate and part order are trusted as returned; first match
// wins.
func extractImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &GenerationError{Reason: "no candidates in model response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &GenerationError{Reason: "no content parts in model response"}
	}

	var textFallback string
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			if len(p.Data) == 0 {
				return nil, &GenerationError{Reason: "model returned an empty image"}
			}
			return p.Data, nil
		case genai.Text:
			if textFallback == "" {
				textFallback = string(p)
			}
		}
	}

	if textFallback != "" {
		return nil, &GenerationError{Reason: "model returned text instead of image: " + snippet(textFallback, 200)}
	}
	return nil, &GenerationError{Reason: "model did not return an image"}
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// buildPrompt writes the try-on instruction for one garment type. The
// garment photo may be a product shot, a standalone item, or a model
// wearing a full outfit, so the prompt asks for extraction of the target
// garment only and preservation of everything else about the person photo.
func buildPrompt(garmentType string) string {
	return fmt.Sprintf(`You are an expert virtual try-on AI system. Perform a photorealistic virtual clothing try-on.

TASK: Replace the %[1]s on the person in Image 1 with the %[1]s from Image 2.

IMAGE 1 (Person): The target person who will wear the new garment
IMAGE 2 (Garment): The clothing item to apply - this may show:
  - A model wearing the garment (extract the %[1]s only)
  - A standalone %[1]s on plain background
  - A product photo of the %[1]s

CRITICAL INSTRUCTIONS:

1. GARMENT EXTRACTION:
   - Identify and extract ONLY the %[1]s from Image 2
   - If Image 2 shows a person wearing it, focus only on the %[1]s itself
   - Ignore any other clothing items, accessories, or background in Image 2
   - Preserve the exact color, pattern, texture, and style of the %[1]s

2. GARMENT APPLICATION:
   - Locate the current %[1]s on the person in Image 1
   - Replace it completely with the %[1]s from Image 2
   - Ensure perfect fit and alignment with the person's body shape and pose
   - Add natural wrinkles, folds, and draping based on body position
   - Match the lighting, shadows, and highlights to Image 1's environment

3. PRESERVE IN IMAGE 1:
   - Face, hair, and all facial features
   - Body proportions and pose
   - All other clothing items (pants, shoes, accessories) if only replacing %[1]s
   - Background and environment
   - Original lighting conditions and color temperature
   - Skin tone and texture

4. PHOTOREALISM:
   - The result must look like a real photograph
   - Natural fabric physics (gravity, draping, movement)
   - Proper occlusion and layering
   - Realistic shadows and highlights
   - No visible seams or artifacts

OUTPUT: A single photorealistic image showing the person from Image 1 wearing the %[1]s from Image 2.
`, garmentType)
}
