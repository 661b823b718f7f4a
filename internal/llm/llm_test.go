package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/po-matcher/internal/common"
)

const validPair = `{"invoice_data":{"invoice_no":"INV-1","vendor":"Acme","items":[],"total":10},"po_data":{"po_no":"PO-1","vendor":"Acme","items":[],"total":10}}`

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
		"":                        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripFences(in))
	}
}

func TestFinishContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "valid", content: validPair},
		{name: "fenced", content: "```json\n" + validPair + "\n```"},
		{name: "numeric ids and string totals", content: `{"invoice_data":{"invoice_no":42,"total":"10.00"},"po_data":{"po_no":null}}`},
		{name: "empty", content: "   ", wantErr: true},
		{name: "not json", content: "Sorry, I cannot read that document.", wantErr: true},
		{name: "missing po section", content: `{"invoice_data":{}}`, wantErr: true},
		{name: "section not an object", content: `{"invoice_data":[],"po_data":{}}`, wantErr: true},
		{name: "items not an array", content: `{"invoice_data":{"items":{}},"po_data":{}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := FinishContent(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, json.Valid(out))
		})
	}
}

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, NewTextRequest("a", "b").Validate())
	assert.Error(t, NewTextRequest("a", "").Validate())
	assert.NoError(t, NewImageRequest([]byte{1}, []byte{2}).Validate())
	assert.Error(t, NewImageRequest(nil, []byte{2}).Validate())
	assert.Error(t, Request{Mode: "audio"}.Validate())
}

func TestRequestPrompts(t *testing.T) {
	text := NewTextRequest("invoice body", "po body")
	assert.Equal(t, ModeText, text.Mode)
	assert.Contains(t, text.Prompt, "From the INVOICE text")
	assert.Contains(t, text.Prompt, `"po_data"`)
	assert.Equal(t, []string{
		"\n--- INVOICE TEXT ---\ninvoice body",
		"\n--- PO TEXT ---\npo body",
	}, text.TextSections())

	img := NewImageRequest([]byte("x"), []byte("y"))
	assert.Equal(t, ModeImage, img.Mode)
	assert.Contains(t, img.Prompt, "From the PURCHASE ORDER image")
	assert.Equal(t, "data:image/png;base64,eA==", img.InvoiceImage.DataURL())
}

func TestSendJSON(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		if gotBody["fail"] == true {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ctx := common.WithRequestID(context.Background(), "req-1")
	raw, status, err := SendJSON(ctx, srv.Client(), srv.URL, map[string]any{"hello": "world"}, map[string]string{"Authorization": "Bearer k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, "world", gotBody["hello"])
	assert.Equal(t, "Bearer k", gotAuth)

	raw, status, err = SendJSON(ctx, srv.Client(), srv.URL, map[string]any{"fail": true}, nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, err.Error(), "slow down")
	assert.NotEmpty(t, raw)
}
