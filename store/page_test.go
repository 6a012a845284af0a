package store

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jonwraymond/synckit/httperr"
)

func TestDecodeResource_Pages(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantItems int
	}{
		{
			name:      "valid page",
			body:      `{"items":[{"id":"a"},{"id":"b"}],"pagination":{"page":1,"per_page":50,"total":2,"total_pages":1}}`,
			wantItems: 2,
		},
		{
			name:      "empty items",
			body:      `{"items":[],"pagination":{"page":1,"per_page":50,"total":0,"total_pages":0}}`,
			wantItems: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := decodeResource(strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("decodeResource: %v", err)
			}
			p, ok := v.(*Page)
			if !ok {
				t.Fatalf("decodeResource = %T, want *Page", v)
			}
			if len(p.Items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(p.Items), tt.wantItems)
			}
		})
	}
}

func TestDecodeResource_SingleRecord(t *testing.T) {
	v, err := decodeResource(strings.NewReader(`{"id":"order-7","status":"pending"}`))
	if err != nil {
		t.Fatalf("decodeResource: %v", err)
	}
	raw, ok := v.(json.RawMessage)
	if !ok {
		t.Fatalf("decodeResource = %T, want json.RawMessage", v)
	}
	var rec struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if rec.ID != "order-7" || rec.Status != "pending" {
		t.Errorf("record = %+v", rec)
	}
}

func TestDecodeResource_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>gateway error</html>`},
		{name: "json array", body: `[{"id":"a"}]`},
		{name: "json scalar", body: `42`},
		{name: "json null", body: `null`},
		{name: "null items", body: `{"items":null,"pagination":{"page":1}}`},
		{name: "mistyped items", body: `{"items":"nope","pagination":{"page":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeResource(strings.NewReader(tt.body)); err == nil {
				t.Fatal("expected error")
			} else if got := httperr.KindOf(err); got != httperr.KindServerError {
				t.Errorf("kind = %v, want %v", got, httperr.KindServerError)
			}
		})
	}
}
