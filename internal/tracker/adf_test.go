package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToADF(t *testing.T) {
	doc := toADF("Title\n\nfirst\nsecond\n\n\n")
	assert.Equal(t, "doc", doc.Type)
	assert.Equal(t, 1, doc.Version)
	require.Len(t, doc.Content, 2)

	assert.Equal(t, []adfNode{{Type: "text", Text: "Title"}}, doc.Content[0].Content)
	assert.Equal(t, []adfNode{
		{Type: "text", Text: "first"},
		{Type: "hardBreak"},
		{Type: "text", Text: "second"},
	}, doc.Content[1].Content)
}

func TestToADF_Empty(t *testing.T) {
	doc := toADF("")
	require.Len(t, doc.Content, 1)
	assert.Equal(t, "paragraph", doc.Content[0].Type)
	assert.Empty(t, doc.Content[0].Content)
}
