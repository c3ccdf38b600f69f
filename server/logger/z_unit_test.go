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

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestParseMode(t *testing.T) {
	cases := map[string]LogMode{
		"":            ModeDev,
		"dev":         ModeDev,
		"ModeProd":    ModeProd,
		"PROD":        ModeProd,
		"silence":     ModeSilence,
		"ModeSilence": ModeSilence,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("verbose"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	NewWriterLogger(ModeProd, &buf).Info("simulation done", slog.Int("trials", 10))
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("prod logger should write json: %v", err)
	}
	if rec["msg"] != "simulation done" || rec["trials"] != float64(10) {
		t.Fatalf("unexpected record %v", rec)
	}

	buf.Reset()
	NewWriterLogger(ModeProd, &buf).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("prod logger should skip debug")
	}
	NewWriterLogger(ModeSilence, &buf).Error("hidden")
	if buf.Len() != 0 {
		t.Fatalf("silence logger should discard")
	}
}

// syncBuffer 讓背景 worker 與測試同時存取 buffer。
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	out := &syncBuffer{}
	ah := NewAsyncHandler(slog.NewTextHandler(out, nil), 64)
	log := slog.New(ah).With(slog.String("svc", "orblab"))
	for i := 0; i < 10; i++ {
		log.Info("tick", slog.Int("i", i))
	}
	ah.Close()
	if got := strings.Count(out.String(), "msg=tick"); got+int(ah.Dropped()) != 10 {
		t.Fatalf("written %d + dropped %d should be 10", got, ah.Dropped())
	}
	if !strings.Contains(out.String(), "svc=orblab") {
		t.Fatalf("WithAttrs lost:\n%s", out.String())
	}

	before := ah.Dropped()
	_ = ah.Handle(context.Background(), slog.Record{})
	if ah.Dropped() != before+1 {
		t.Fatalf("records after Close should be dropped")
	}
}
