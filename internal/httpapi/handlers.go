package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/pkg/types"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

type SnapshotSource interface {
	Snapshot(ctx context.Context) (types.Snapshot, error)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Snapshot serves the same late-join view a websocket client receives.
func Snapshot(src SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snap, err := src.Snapshot(ctx)
		if err != nil {
			http.Error(w, "lobby unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}

// QR renders a PNG QR code pointing players at the game. Without a
// configured public URL it uses the request's own scheme and host.
func QR(publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := publicURL
		if url == "" {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
				scheme = proto
			}
			url = scheme + "://" + r.Host + "/"
		}

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}
