package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "dragons", Slugify("Dragons"))
	assert.Equal(t, "white-walkers", Slugify("White Walkers"))
	assert.Equal(t, "fire-blood", Slugify("Fire & Blood"))
	assert.Equal(t, "a-song-of-ice-and-fire-2", Slugify("  A Song of Ice and Fire (2) "))
	assert.Equal(t, "", Slugify("!!!"))
}
