package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	controller "github.com/m-mizutani/tagship/pkg/controller/http"
	"github.com/m-mizutani/tagship/pkg/domain/interfaces"
	"github.com/m-mizutani/tagship/pkg/domain/model"
	"github.com/m-mizutani/tagship/pkg/usecase"
)

// generateSignature generates HMAC-SHA256 signature for testing
func generateSignature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// recordingPipeline records the refs it was asked to release
type recordingPipeline struct {
	mu   sync.Mutex
	refs []string
}

func (p *recordingPipeline) Run(ctx context.Context, ref string) (*model.RunReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs = append(p.refs, ref)
	return model.NewRunReport("test-run", ref), nil
}

func (p *recordingPipeline) Refs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.refs...)
}

func syncDispatch(ctx context.Context, handler func(ctx context.Context) error) {
	_ = handler(ctx)
}

func newWebhookUseCase(p *recordingPipeline) interfaces.WebhookUseCase {
	return usecase.NewWebhook(p, usecase.WithDispatcher(syncDispatch))
}

func TestWebhookHandler_SignatureVerification(t *testing.T) {
	secret := "test-secret"
	handler := controller.NewWebhookHandler(secret, newWebhookUseCase(&recordingPipeline{}))

	tests := []struct {
		name           string
		payload        string
		signature      string
		wantStatusCode int
	}{
		{
			name:           "Valid signature",
			payload:        `{"ref":"refs/heads/main","repository":{"full_name":"test/repo"},"sender":{"login":"testuser"}}`,
			signature:      "", // Will be generated
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "Invalid signature",
			payload:        `{"ref":"refs/tags/v1.0.0"}`,
			signature:      "sha256=invalid",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "Signature made with another secret",
			payload:        `{"ref":"refs/tags/v1.0.0"}`,
			signature:      generateSignature("other-secret", []byte(`{"ref":"refs/tags/v1.0.0"}`)),
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "Missing signature",
			payload:        `{"ref":"refs/tags/v1.0.0"}`,
			signature:      "",
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte(tt.payload)
			signature := tt.signature
			if signature == "" && tt.wantStatusCode == http.StatusOK {
				signature = generateSignature(secret, payload)
			}

			req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", "push")
			req.Header.Set("X-GitHub-Delivery", "test-delivery")
			req.Header.Set("X-Hub-Signature-256", signature)

			w := httptest.NewRecorder()
			handler.Handle(w, req)

			if w.Code != tt.wantStatusCode {
				t.Errorf("Handle() status = %v, want %v", w.Code, tt.wantStatusCode)
			}
		})
	}
}

func TestWebhookHandler_EventParsing(t *testing.T) {
	secret := "test-secret"

	tests := []struct {
		name           string
		eventType      string
		payload        map[string]interface{}
		wantStatusCode int
		wantRefs       []string
	}{
		{
			name:      "Tag push starts a release",
			eventType: "push",
			payload: map[string]interface{}{
				"ref": "refs/tags/v1.2.3",
				"repository": map[string]interface{}{
					"full_name": "test/repo",
				},
				"sender": map[string]interface{}{
					"login": "testuser",
				},
			},
			wantStatusCode: http.StatusOK,
			wantRefs:       []string{"refs/tags/v1.2.3"},
		},
		{
			name:      "Branch push is ignored",
			eventType: "push",
			payload: map[string]interface{}{
				"ref": "refs/heads/main",
				"repository": map[string]interface{}{
					"full_name": "test/repo",
				},
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:      "Tag deletion is ignored",
			eventType: "push",
			payload: map[string]interface{}{
				"ref":     "refs/tags/v1.2.3",
				"deleted": true,
				"repository": map[string]interface{}{
					"full_name": "test/repo",
				},
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:      "Ping event",
			eventType: "ping",
			payload: map[string]interface{}{
				"zen":     "Keep it logically awesome.",
				"hook_id": 42,
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:      "Release event is ignored",
			eventType: "release",
			payload: map[string]interface{}{
				"action": "released",
				"release": map[string]interface{}{
					"id": 1,
				},
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &recordingPipeline{}
			handler := controller.NewWebhookHandler(secret, newWebhookUseCase(pipeline))

			payloadBytes, _ := json.Marshal(tt.payload)
			signature := generateSignature(secret, payloadBytes)

			req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payloadBytes))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", tt.eventType)
			req.Header.Set("X-GitHub-Delivery", "test-delivery")
			req.Header.Set("X-Hub-Signature-256", signature)

			w := httptest.NewRecorder()
			handler.Handle(w, req)

			if w.Code != tt.wantStatusCode {
				t.Errorf("Handle() status = %v, want %v, body = %s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var response map[string]string
				if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
					t.Errorf("Failed to decode response: %v", err)
				}
				if response["status"] != "success" {
					t.Errorf("Response status = %v, want success", response["status"])
				}
			}

			refs := pipeline.Refs()
			if len(refs) != len(tt.wantRefs) {
				t.Fatalf("pipeline runs = %v, want %v", refs, tt.wantRefs)
			}
			for i := range refs {
				if refs[i] != tt.wantRefs[i] {
					t.Errorf("pipeline ref[%d] = %v, want %v", i, refs[i], tt.wantRefs[i])
				}
			}
		})
	}
}

func TestWebhookHandler_MalformedPayload(t *testing.T) {
	secret := "test-secret"
	handler := controller.NewWebhookHandler(secret, newWebhookUseCase(&recordingPipeline{}))

	payload := []byte(`{"ref":`)
	req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

	w := httptest.NewRecorder()
	handler.Handle(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Handle() status = %v, want %v", w.Code, http.StatusBadRequest)
	}
}

func TestWebhookHandler_PipelineNotConfigured(t *testing.T) {
	secret := "test-secret"
	uc := usecase.NewWebhook(nil, usecase.WithDispatcher(syncDispatch))
	handler := controller.NewWebhookHandler(secret, uc)

	payload := []byte(`{"ref":"refs/tags/v1.0.0","repository":{"full_name":"test/repo"}}`)
	req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

	w := httptest.NewRecorder()
	handler.Handle(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Handle() status = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}

func TestWebhookHandler_Integration(t *testing.T) {
	ctx := context.Background()
	secret := "integration-test-secret"
	pipeline := &recordingPipeline{}

	server, err := controller.NewServer(
		ctx,
		newWebhookUseCase(pipeline),
		controller.WithAddr("localhost:0"),
		controller.WithWebhookSecret(secret),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ts := httptest.NewServer(server.Handler)
	defer ts.Close()

	payload := map[string]interface{}{
		"ref": "refs/tags/v2.0.0",
		"repository": map[string]interface{}{
			"full_name": "test/repo",
		},
		"sender": map[string]interface{}{
			"login": "testuser",
		},
	}

	payloadBytes, _ := json.Marshal(payload)
	signature := generateSignature(secret, payloadBytes)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/hooks/github", bytes.NewReader(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-GitHub-Delivery", "integration-test")
	req.Header.Set("X-Hub-Signature-256", signature)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer func() {
		_ = resp.Body.Close() // Error ignored in test
	}()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status code = %v, want %v", resp.StatusCode, http.StatusOK)
	}

	refs := pipeline.Refs()
	if len(refs) != 1 || refs[0] != "refs/tags/v2.0.0" {
		t.Errorf("pipeline runs = %v, want [refs/tags/v2.0.0]", refs)
	}
}

func TestWebhookHandler_PayloadTooLarge(t *testing.T) {
	ctx := context.Background()
	secret := "test-secret"

	server, err := controller.NewServer(
		ctx,
		newWebhookUseCase(&recordingPipeline{}),
		controller.WithWebhookSecret(secret),
		controller.WithMaxBodyBytes(16),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	payload := []byte(`{"ref":"refs/tags/v1.0.0","repository":{"full_name":"test/repo"}}`)
	req := httptest.NewRequest(http.MethodPost, "/hooks/github", bytes.NewReader(payload))
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", generateSignature(secret, payload))

	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusBadRequest)
	}
}
