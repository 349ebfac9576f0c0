package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGateway("test-key", "test-model", "test-vision", zap.NewNop().Sugar())
	g.BaseURL = srv.URL
	g.Client = srv.Client()
	return g, srv
}

func TestGenerateSuccess(t *testing.T) {
	g, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req genRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"world"}]},"finishReason":"STOP"}]}`))
	})

	out, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "world", out)
}

func TestGenerateVisionSendsInlineData(t *testing.T) {
	g, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req genRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		parts := req.Contents[0].Parts
		require.Len(t, parts, 2)
		require.NotNil(t, parts[1].InlineData)
		assert.Equal(t, "image/png", parts[1].InlineData.MimeType)
		assert.Equal(t, "aGk=", parts[1].InlineData.Data)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"extracted"}]}}]}`))
	})

	out, err := g.GenerateVision(context.Background(), "read this", "image/png", "aGk=")
	require.NoError(t, err)
	assert.Equal(t, "extracted", out)
}

func TestGenerateMissingCredential(t *testing.T) {
	g := NewGateway("", "m", "v", zap.NewNop().Sugar())

	_, err := g.Generate(context.Background(), "x")
	assert.True(t, GatewayErrorIs(err, MissingCredential))
}

func TestGenerateAPIError(t *testing.T) {
	g, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	})

	_, err := g.Generate(context.Background(), "x")
	require.True(t, GatewayErrorIs(err, APIError))

	var ge *GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusTooManyRequests, ge.Status)
	assert.Equal(t, "quota exceeded", ge.Message)
}

func TestGenerateSafetyBlocked(t *testing.T) {
	g, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"finishReason":"SAFETY"}]}`))
	})

	_, err := g.Generate(context.Background(), "x")
	assert.True(t, GatewayErrorIs(err, SafetyBlocked))
}

func TestGenerateMalformedResponsePaths(t *testing.T) {
	cases := []struct {
		name string
		body string
		path string
	}{
		{"no candidates", `{"candidates":[]}`, "candidates"},
		{"no content", `{"candidates":[{"finishReason":"STOP"}]}`, "candidates[0].content"},
		{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`, "candidates[0].content.parts"},
		{"empty text", `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`, "candidates[0].content.parts[0].text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := g.Generate(context.Background(), "x")
			require.True(t, GatewayErrorIs(err, MalformedResponse))

			var ge *GatewayError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tc.path, ge.MissingPath)
		})
	}
}

func TestGenerateNetworkFailure(t *testing.T) {
	g, srv := testGateway(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := g.Generate(context.Background(), "x")
	assert.True(t, GatewayErrorIs(err, NetworkFailure))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}
