package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHeader(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{
			name: "python docstring after shebang and coding",
			file: "tool.py",
			content: "#!/usr/bin/env python3\n# -*- coding: utf-8 -*-\n\"\"\"Do things\n\n" +
				"    Dependencies:\n    numpy\n\"\"\"\nimport os\n",
			want: []string{"Do things", "", "Dependencies:", "numpy"},
		},
		{
			name:    "python single line docstring",
			file:    "a.py",
			content: "'''One liner'''\nx = 1\n",
			want:    []string{"One liner"},
		},
		{
			name:    "python hash block",
			file:    "a.py",
			content: "# Dependencies:\n# widget\nimport widget\n",
			want:    []string{"Dependencies:", "widget"},
		},
		{
			name:    "shell hash block stops at code",
			file:    "run.sh",
			content: "#!/bin/sh\n# Examples:\n# $ ./run.sh\n# ok\necho ok\n# not header\n",
			want:    []string{"Examples:", "$ ./run.sh", "ok"},
		},
		{
			name:    "c line comments",
			file:    "widget.c",
			content: "// Dependencies:\n// $ make\nint main(void) { return 0; }\n",
			want:    []string{"Dependencies:", "$ make"},
		},
		{
			name:    "c block comment with decoration",
			file:    "widget.h",
			content: "/*\n * Dependencies:\n * $ make\n */\n#pragma once\n",
			want:    []string{"Dependencies:", "$ make"},
		},
		{
			name:    "markdown html comment",
			file:    "README.md",
			content: "<!--\nDependencies:\nwidget\n-->\n# Title\n",
			want:    []string{"Dependencies:", "widget"},
		},
		{
			name:    "markdown without comment",
			file:    "README.md",
			content: "# Title\n<!-- late -->\n",
			want:    nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Header(tc.file, []byte(tc.content))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Header mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
