package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"webroot/admin/home.html", true},
		{"webroot/scripts/app.js", true},
		{"webroot/styles/site.css", true},
		{"webroot/notes.TXT", true},
		{"webroot/page.htm", true},
		{"webroot/.hidden.html", false},
		{"webroot/home.html~", false},
		{"webroot/.home.html.swp", false},
		{"webroot/readme.md", false},
		{"webroot/image.png", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, publishable(tt.path), tt.path)
	}
}
