// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var payload = strings.Repeat(`{"orbs":37,"pct":0.5}`, 200)

func jsonHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, payload)
}

func serve(h http.Handler, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/sim", nil)
	if accept != "" {
		req.Header.Set("Accept-Encoding", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCompressionZstd(t *testing.T) {
	rec := serve(Compression(http.HandlerFunc(jsonHandler)), "gzip, zstd")
	if rec.Header().Get("Content-Encoding") != "zstd" {
		t.Fatalf("expected zstd, got %q", rec.Header().Get("Content-Encoding"))
	}
	dec, err := zstd.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	got, err := io.ReadAll(dec)
	if err != nil || string(got) != payload {
		t.Fatalf("zstd round trip failed: %v", err)
	}
}

func TestCompressionGzip(t *testing.T) {
	rec := serve(Compression(http.HandlerFunc(jsonHandler)), "gzip")
	if rec.Header().Get("Content-Encoding") != "gzip" || rec.Body.Len() >= len(payload) {
		t.Fatalf("expected smaller gzip body")
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	got, _ := io.ReadAll(zr)
	if string(got) != payload {
		t.Fatalf("gzip round trip failed")
	}
}

func TestCompressionSkips(t *testing.T) {
	rec := serve(Compression(http.HandlerFunc(jsonHandler)), "")
	if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != payload {
		t.Fatalf("no Accept-Encoding should pass through")
	}

	png := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG raw"))
	})
	rec = serve(Compression(png), "gzip")
	if rec.Header().Get("Content-Encoding") != "" || rec.Body.String() != "\x89PNG raw" {
		t.Fatalf("binary content should not be compressed")
	}

	empty := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec = serve(Compression(empty), "zstd")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 || rec.Header().Get("Content-Encoding") != "" {
		t.Fatalf("204 must stay empty, got %d bytes", rec.Body.Len())
	}
}

func TestRequestIDAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, "orb")
	})))
	rec := serve(h, "")
	id := rec.Header().Get(ReqIDHeader)
	if id == "" {
		t.Fatalf("missing request id header")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("access log not json: %v", err)
	}
	if entry["req_id"] != id || entry["status"] != float64(http.StatusTeapot) || entry["bytes"] != float64(3) {
		t.Fatalf("unexpected access log %v", entry)
	}
	if entry["level"] != "WARN" {
		t.Fatalf("4xx should log at warn, got %v", entry["level"])
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := Recover(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := serve(h, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("panic should map to 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "boom") || !strings.Contains(buf.String(), "http.panic") {
		t.Fatalf("panic not reported: %s / %s", rec.Body.String(), buf.String())
	}
}
