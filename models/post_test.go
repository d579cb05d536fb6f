package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPostStatus(t *testing.T) {
	assert.True(t, ValidPostStatus(PostStatusDraft))
	assert.True(t, ValidPostStatus(PostStatusPublished))
	assert.False(t, ValidPostStatus(""))
	assert.False(t, ValidPostStatus("archived"))
	assert.False(t, ValidPostStatus("Draft"))
}

func TestPostPublished(t *testing.T) {
	p := Post{Status: PostStatusDraft}
	assert.False(t, p.Published())

	p.Status = PostStatusPublished
	assert.True(t, p.Published())
}
