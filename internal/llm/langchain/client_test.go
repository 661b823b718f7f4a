package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/llm"
)

const pairJSON = `{"invoice_data":{"invoice_no":"INV-1","vendor":"Acme","items":[],"total":1},"po_data":{"po_no":"PO-1","vendor":"Acme","items":[],"total":1}}`

type fakeModel struct {
	content  string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.content}}}, nil
}

func TestExtractPair_TextParts(t *testing.T) {
	model := &fakeModel{content: "```json\n" + pairJSON + "\n```"}
	c := newWithModel(Config{Provider: ProviderGemini, Model: "gemini-test"}, model, nil)

	out, err := c.ExtractPair(context.Background(), llm.NewTextRequest("inv text", "po text"))
	require.NoError(t, err)
	assert.JSONEq(t, pairJSON, string(out))

	require.Len(t, model.messages, 1)
	msg := model.messages[0]
	assert.Equal(t, llms.ChatMessageTypeHuman, msg.Role)
	require.Len(t, msg.Parts, 3)
	assert.Equal(t, llms.TextPart(llm.TextPrompt), msg.Parts[0])
	assert.Equal(t, llms.TextPart("\n--- INVOICE TEXT ---\ninv text"), msg.Parts[1])
	assert.Equal(t, llms.TextPart("\n--- PO TEXT ---\npo text"), msg.Parts[2])
	assert.Equal(t, 0.0, model.opts.Temperature)
}

func TestExtractPair_ImageParts(t *testing.T) {
	model := &fakeModel{content: pairJSON}
	c := newWithModel(Config{Provider: ProviderOllama, Model: "llava", Temperature: 0.2}, model, nil)

	_, err := c.ExtractPair(context.Background(), llm.NewImageRequest([]byte("inv"), []byte("po")))
	require.NoError(t, err)

	parts := model.messages[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, llms.TextPart(llm.ImagePrompt), parts[0])
	assert.Equal(t, llms.BinaryPart("image/png", []byte("inv")), parts[1])
	assert.Equal(t, llms.BinaryPart("image/png", []byte("po")), parts[2])
	assert.InDelta(t, 0.2, model.opts.Temperature, 1e-6)
}

func TestExtractPair_Errors(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		c := newWithModel(Config{Provider: ProviderGemini}, &fakeModel{err: errors.New("quota exceeded")}, nil)
		_, err := c.ExtractPair(context.Background(), llm.NewTextRequest("a", "b"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
	t.Run("unparsable content", func(t *testing.T) {
		c := newWithModel(Config{Provider: ProviderGemini}, &fakeModel{content: "no json here"}, nil)
		_, err := c.ExtractPair(context.Background(), llm.NewTextRequest("a", "b"))
		assert.Error(t, err)
	})
	t.Run("invalid request", func(t *testing.T) {
		model := &fakeModel{content: pairJSON}
		c := newWithModel(Config{Provider: ProviderGemini}, model, nil)
		_, err := c.ExtractPair(context.Background(), llm.NewImageRequest(nil, nil))
		assert.Error(t, err)
		assert.Nil(t, model.messages)
	})
}

func TestNew_ConfigurationErrors(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderGemini, Model: "gemini-1.5-pro"}, nil)
	assert.True(t, errors.Is(err, common.ErrConfiguration))

	_, err = New(context.Background(), Config{Provider: "bard"}, nil)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}
