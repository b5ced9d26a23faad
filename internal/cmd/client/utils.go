package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// httpPostJSON posts a JSON body and returns the response status and decoded
// body (nil when the response is empty or not JSON).
func httpPostJSON(ctx context.Context, target string, body any) (string, any, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return "", nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, rd)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var decoded any
	_ = json.Unmarshal(raw, &decoded)
	if resp.StatusCode >= 400 {
		return resp.Status, decoded, fmt.Errorf("server: %s: %s", resp.Status, bytes.TrimSpace(raw))
	}
	return resp.Status, decoded, nil
}

// httpGetJSON fetches and decodes a JSON response.
func httpGetJSON(ctx context.Context, target string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server: %s: %s", resp.Status, bytes.TrimSpace(raw))
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

// splitLines splits on \n, trimming a trailing \r from each line.
func splitLines(b []byte) [][]byte {
	lines := bytes.Split(b, []byte{'\n'})
	out := make([][]byte, 0, len(lines))
	for _, line := range lines {
		out = append(out, bytes.TrimSuffix(line, []byte{'\r'}))
	}
	return out
}
