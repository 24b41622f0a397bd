package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// HTTPPush posts order notifications to an external push endpoint using a
// bearer key. Used by the relay when the user has no live websocket.
type HTTPPush struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewHTTPPush(endpoint, key string) *HTTPPush {
	return &HTTPPush{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (p *HTTPPush) Notify(userID string, payload any) error {
	body := map[string]any{"user_id": userID, "data": payload}
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, p.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Key != "" {
		req.Header.Set("Authorization", "Bearer "+p.Key)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
