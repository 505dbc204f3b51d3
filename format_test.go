package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintTableAlignment(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"NAME", "PATH"}, [][]string{
		{"home.html", "/admin/home.html"},
		{"x", "/x"},
	})

	assert.Equal(t, "NAME       PATH\nhome.html  /admin/home.html\nx          /x\n", buf.String())
}

func TestPrintTableColoredCellAlignment(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"NAME", "PATH"}, [][]string{
		{ansiBold + ansiBlue + "admin/" + ansiReset, "/admin"},
		{"home.html", "/admin/home.html"},
	})

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	assert.Len(t, lines, 3)

	// The colored folder name pads to the visible width of "home.html".
	assert.Contains(t, string(lines[1]), "admin/")
	assert.Contains(t, string(lines[1]), "/admin")
}

func TestVisibleLen(t *testing.T) {
	assert.Equal(t, 5, visibleLen("plain"))
	assert.Equal(t, 6, visibleLen(ansiBold+ansiBlue+"admin/"+ansiReset))
	assert.Equal(t, 0, visibleLen(ansiReset))
}
