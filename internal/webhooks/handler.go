// Package webhooks lets processes outside the server, such as portalctl
// seed or a related-articles batch job, tell it which cached public pages
// are stale. Requests are signed with a shared secret.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/EmpoweredVote/news-portal/internal/revalidate"
	"github.com/EmpoweredVote/news-portal/internal/utils"
)

const (
	SignatureHeader = "X-Revalidate-Signature"
	maxBody         = 1 << 20 // 1 MiB
)

// Request names exact paths and path prefixes to drop.
type Request struct {
	Paths    []string `json:"paths"`
	Prefixes []string `json:"prefixes"`
}

type Handler struct {
	secret []byte
	notify revalidate.Notifier
}

func NewHandler(secret string, notify revalidate.Notifier) *Handler {
	return &Handler{secret: []byte(secret), notify: notify}
}

// Revalidate handles POST /hooks/revalidate.
func (h *Handler) Revalidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "payload too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	defer r.Body.Close()

	if len(h.secret) == 0 {
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}
	if !verify(r.Header.Get(SignatureHeader), raw, h.secret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	for _, p := range append(req.Paths, req.Prefixes...) {
		if !strings.HasPrefix(p, "/") {
			http.Error(w, "paths must start with /", http.StatusBadRequest)
			return
		}
	}

	h.notify.Revalidate(req.Paths...)
	h.notify.RevalidatePrefix(req.Prefixes...)
	log.Printf("[content] webhook revalidated %d paths, %d prefixes", len(req.Paths), len(req.Prefixes))
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Sign returns the header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func verify(sig string, raw, secret []byte) bool {
	if !strings.HasPrefix(sig, "sha256=") {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(Sign(string(secret), raw)))
}

// Send posts a signed Request to a running server's hook URL.
func Send(ctx context.Context, client *http.Client, url, secret string, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(SignatureHeader, Sign(secret, body))

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("revalidate hook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("revalidate hook: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
