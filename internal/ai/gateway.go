package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Gateway issues single-turn generation requests against the LLM endpoint.
// Every call is one request, one response: no streaming and no retries here.
// Retrying is the caller's decision.
type Gateway struct {
	APIKey      string
	Model       string
	VisionModel string
	BaseURL     string
	Client      *http.Client
	Log         *zap.SugaredLogger
}

func NewGateway(apiKey, model, visionModel string, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		APIKey:      apiKey,
		Model:       model,
		VisionModel: visionModel,
		BaseURL:     defaultBaseURL,
		Client:      http.DefaultClient,
		Log:         log,
	}
}

type genPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *genInlineData `json:"inline_data,omitempty"`
}

type genInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
}

type genRequest struct {
	Contents []genContent `json:"contents"`
}

type genResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends a text prompt and returns the model's text reply.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	return g.call(ctx, g.Model, []genPart{{Text: prompt}})
}

// GenerateVision sends a text prompt plus inline base64 image data. Used by
// the OCR path.
func (g *Gateway) GenerateVision(ctx context.Context, prompt, mimeType, imageB64 string) (string, error) {
	return g.call(ctx, g.VisionModel, []genPart{
		{Text: prompt},
		{InlineData: &genInlineData{MimeType: mimeType, Data: imageB64}},
	})
}

func (g *Gateway) call(ctx context.Context, model string, parts []genPart) (string, error) {
	if g.APIKey == "" {
		return "", &GatewayError{Kind: MissingCredential, Message: "api key is not set"}
	}

	body, err := json.Marshal(genRequest{Contents: []genContent{{Parts: parts}}})
	if err != nil {
		return "", &GatewayError{Kind: NetworkFailure, Err: err}
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.BaseURL, model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &GatewayError{Kind: NetworkFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", &GatewayError{Kind: NetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GatewayError{Kind: NetworkFailure, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		var eb apiErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		return "", &GatewayError{Kind: APIError, Status: resp.StatusCode, Message: msg}
	}

	var gr genResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", &GatewayError{Kind: MalformedResponse, MissingPath: "candidates", Err: err}
	}
	return extractText(gr, g.Log)
}

// extractText walks the expected response shape, naming the first missing
// field when the shape does not hold. A safety finish reason is a
// distinguished failure, not an empty reply.
func extractText(gr genResponse, log *zap.SugaredLogger) (string, error) {
	if len(gr.Candidates) == 0 {
		return "", &GatewayError{Kind: MalformedResponse, MissingPath: "candidates"}
	}
	cand := gr.Candidates[0]

	if cand.FinishReason == "SAFETY" {
		return "", &GatewayError{Kind: SafetyBlocked, Message: "content generation blocked by safety policies"}
	}
	if cand.FinishReason == "MAX_TOKENS" && log != nil {
		log.Warnw("response may have been truncated", "finishReason", cand.FinishReason)
	}

	if cand.Content == nil {
		return "", &GatewayError{Kind: MalformedResponse, MissingPath: "candidates[0].content"}
	}
	if len(cand.Content.Parts) == 0 {
		return "", &GatewayError{Kind: MalformedResponse, MissingPath: "candidates[0].content.parts"}
	}
	if cand.Content.Parts[0].Text == "" {
		return "", &GatewayError{Kind: MalformedResponse, MissingPath: "candidates[0].content.parts[0].text"}
	}
	return cand.Content.Parts[0].Text, nil
}

// EstimateTokens is the rough chars/4 accounting estimate used for usage rows.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
