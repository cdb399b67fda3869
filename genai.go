package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ronthekiehn/gandalf/pkg/stroke"
)

const (
	genModel       = "gemini-2.0-flash-exp"
	genBaseURL     = "https://generativelanguage.googleapis.com"
	defaultCanvasW = 1280
	defaultCanvasH = 720
)

// enhancePrompt is the fixed instruction sent with /generate requests.
const enhancePrompt = `You are a teacher who is trying to make a student's artwork look nicer to impress their parents. You have been given this drawing, and you must enhance, refine and complete this drawing while maintaining its core elements and shapes. Try your best to leave the student's original work there, but add to the scene to make an impressive drawing. You may also only use the following colors: red, green, blue, black, and white.

in other words:
- REPEAT the entire drawing.
- ENHANCE by adding additional lines, colors, fill, etc.
- COMPLETE by adding other features to the foreground and background

Remember to only use lines the same thickness that the student used.

but DO NOT
- modify the original drawing in any way

The image should be the same aspect ratio, and have ALL of the same original lines.`

// strokesPromptFormat asks the model for stroke JSON instead of an image.
const strokesPromptFormat = `You are drawing on a shared whiteboard of size %dx%d. The attached image shows the current drawing. The user asks: %q.

Respond with ONLY a JSON array of new strokes to add, no prose and no code fences. Each stroke is {"points":[{"x":0,"y":0},...],"color":"<red|green|blue|black|white>","width":<number>}. Coordinates must stay inside the canvas. Do not repeat existing strokes.`

// genClient calls the external generative-image API. Outbound calls are
// paced with a token bucket because the upstream is billed per request.
type genClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
}

func newGenClient(apiKey string) *genClient {
	return &genClient{
		apiKey:  apiKey,
		baseURL: genBaseURL,
		httpc:   &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
}

type genPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *genInlineData `json:"inline_data,omitempty"`
	// Responses use camelCase for the same field.
	InlineDataResp *genInlineData `json:"inlineData,omitempty"`
}

type genInlineData struct {
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data,omitempty"`
}

type genRequest struct {
	Contents []struct {
		Parts []genPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig *struct {
		ResponseModalities []string `json:"responseModalities,omitempty"`
	} `json:"generationConfig,omitempty"`
}

type genResult struct {
	Images []imagePart
	Text   string
}

type imagePart struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

var errNoAPIKey = errors.New("GOOGLE_API_KEY is not configured")

// generate sends a prompt plus the rastered canvas and collects the image
// and text parts of the first candidate.
func (g *genClient) generate(ctx context.Context, promptText string, pngData []byte, wantImage bool) (*genResult, error) {
	if g.apiKey == "" {
		return nil, errNoAPIKey
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var req genRequest
	req.Contents = append(req.Contents, struct {
		Parts []genPart `json:"parts"`
	}{Parts: []genPart{
		{Text: promptText},
		{InlineData: &genInlineData{
			MimeType: "image/png",
			Data:     base64.StdEncoding.EncodeToString(pngData),
		}},
	}})
	if wantImage {
		req.GenerationConfig = &struct {
			ResponseModalities []string `json:"responseModalities,omitempty"`
		}{ResponseModalities: []string{"TEXT", "IMAGE"}}
	}

	body, err := json.Marshal(&req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, genModel, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []genPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("malformed generation response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("upstream error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 {
		return nil, errors.New("generation returned no candidates")
	}

	result := &genResult{}
	for _, part := range parsed.Candidates[0].Content.Parts {
		if part.Text != "" {
			result.Text += part.Text
		}
		if part.InlineDataResp != nil {
			result.Images = append(result.Images, imagePart{
				MimeType: part.InlineDataResp.MimeType,
				Data:     part.InlineDataResp.Data,
			})
		}
	}
	return result, nil
}

type generateRequest struct {
	Strokes      []stroke.Stroke `json:"strokes"`
	UserPrompt   string          `json:"userPrompt"`
	CanvasWidth  int             `json:"canvasWidth"`
	CanvasHeight int             `json:"canvasHeight"`
}

func decodeGenerateRequest(r *http.Request) (*generateRequest, error) {
	var raw struct {
		Strokes      json.RawMessage `json:"strokes"`
		UserPrompt   string          `json:"userPrompt"`
		CanvasWidth  int             `json:"canvasWidth"`
		CanvasHeight int             `json:"canvasHeight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if len(raw.Strokes) == 0 || !strings.HasPrefix(strings.TrimSpace(string(raw.Strokes)), "[") {
		return nil, errors.New("strokes must be an array")
	}

	req := &generateRequest{
		UserPrompt:   raw.UserPrompt,
		CanvasWidth:  raw.CanvasWidth,
		CanvasHeight: raw.CanvasHeight,
	}
	if err := json.Unmarshal(raw.Strokes, &req.Strokes); err != nil {
		return nil, errors.New("malformed stroke payload")
	}
	if len(req.Strokes) == 0 {
		return nil, errors.New("strokes array is empty")
	}
	if req.CanvasWidth <= 0 {
		req.CanvasWidth = defaultCanvasW
	}
	if req.CanvasHeight <= 0 {
		req.CanvasHeight = defaultCanvasH
	}
	return req, nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raster, err := renderStrokesPNG(req.Strokes, req.CanvasWidth, req.CanvasHeight)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.gen.generate(r.Context(), enhancePrompt, raster, true)
	if err != nil {
		log.Printf("generate failed: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"images": result.Images,
		"text":   result.Text,
	})
}

func (s *Server) handleGenerateStrokes(w http.ResponseWriter, r *http.Request) {
	// Stricter limiter than the general HTTP one: generations are billed.
	if s.genLimiter.IsLimited(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "please wait between generations")
		return
	}

	req, err := decodeGenerateRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		writeError(w, http.StatusBadRequest, "userPrompt is required")
		return
	}

	raster, err := renderStrokesPNG(req.Strokes, req.CanvasWidth, req.CanvasHeight)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	prompt := fmt.Sprintf(strokesPromptFormat, req.CanvasWidth, req.CanvasHeight, req.UserPrompt)
	result, err := s.gen.generate(r.Context(), prompt, raster, false)
	if err != nil {
		log.Printf("generate-strokes failed: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	text := strings.TrimSpace(result.Text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.Trim(text, "` \n")
	if !json.Valid([]byte(text)) {
		writeError(w, http.StatusBadGateway, "model returned invalid stroke JSON")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"newStrokes": text})
}

// renderStrokesPNG paints the strokes onto a flat white canvas. Segments
// are stamped with filled discs along their length, which is plenty for the
// reference raster the model receives.
func renderStrokesPNG(strokes []stroke.Stroke, width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	white := color.RGBA{255, 255, 255, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, white)
		}
	}

	for _, st := range strokes {
		c := parseColor(st.Color)
		radius := math.Max(st.Width/2, 0.5)
		if len(st.Points) == 1 {
			stampDisc(img, st.Points[0].X, st.Points[0].Y, radius, c)
			continue
		}
		for i := 1; i < len(st.Points); i++ {
			stampSegment(img, st.Points[i-1], st.Points[i], radius, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("raster encode: %w", err)
	}
	return buf.Bytes(), nil
}

func stampSegment(img *image.RGBA, a, b stroke.Point, radius float64, c color.RGBA) {
	length := math.Hypot(b.X-a.X, b.Y-a.Y)
	steps := int(length) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		stampDisc(img, a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t, radius, c)
	}
}

func stampDisc(img *image.RGBA, cx, cy, radius float64, c color.RGBA) {
	r := int(math.Ceil(radius))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if float64(dx*dx+dy*dy) > radius*radius {
				continue
			}
			x, y := int(cx)+dx, int(cy)+dy
			if image.Pt(x, y).In(img.Rect) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

var namedColors = map[string]color.RGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"red":   {220, 38, 38, 255},
	"green": {22, 163, 74, 255},
	"blue":  {37, 99, 235, 255},
}

// parseColor accepts the palette names plus #rgb/#rrggbb hex; anything else
// falls back to black.
func parseColor(s string) color.RGBA {
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
		}
	}
	return namedColors["black"]
}
