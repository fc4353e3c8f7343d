package smile_xml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const smileUsername = "smile"

// HTTPTransport talks to a gateway over its local HTTP API using basic auth
// with the smile id printed on the device.
type HTTPTransport struct {
	baseURL  string
	password string
	client   *http.Client
}

func NewHTTPTransport(host, password string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTransport{
		baseURL:  fmt.Sprintf("http://%s", host),
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(smileUsername, t.password)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d for %s", resp.StatusCode, path)
	}
	return io.ReadAll(resp.Body)
}

func (t *HTTPTransport) Put(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(smileUsername, t.password)
	req.Header.Set("Content-Type", "text/xml")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("gateway returned status %d for %s", resp.StatusCode, path)
	}
	return nil
}
