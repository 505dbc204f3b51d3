package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edtools/pscpm-go/internal/cpm"
)

func TestFlattenTree(t *testing.T) {
	root := &cpm.TreeNode{
		Name: "/",
		Path: "/",
		Kind: cpm.KindFolder,
		Children: []*cpm.TreeNode{
			{
				Name: "admin",
				Path: "/admin",
				Kind: cpm.KindFolder,
				Children: []*cpm.TreeNode{
					{Name: "home.html", Path: "/admin/home.html", Kind: cpm.KindPage},
				},
			},
			{Name: "index.html", Path: "/index.html", Kind: cpm.KindPage},
		},
	}

	entries := flattenTree(root, nil)

	assert.Equal(t, []lsJSONItem{
		{Name: "admin", Path: "/admin", IsFolder: true},
		{Name: "home.html", Path: "/admin/home.html", IsFolder: false},
		{Name: "index.html", Path: "/index.html", IsFolder: false},
	}, entries)
}
