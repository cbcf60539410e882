package main

import (
	"fmt"
	"io"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dmitrymomot/lecturefeed/pkg/codec"
)

type printer struct {
	out   io.Writer
	raw   bool
	color bool
	now   func() time.Time
}

// print writes one batch: a header line, then every item either compact
// (raw) or indented. Items with a title field get it echoed in the header
// of the item.
func (p *printer) print(version uint64, batch codec.Batch) {
	if p.raw {
		for _, item := range batch {
			fmt.Fprintf(p.out, "%s\n", pretty.Ugly(item))
		}
		return
	}

	fmt.Fprintf(p.out, "%s batch #%d: %d notification(s)\n", p.now().Format(time.TimeOnly), version, batch.Len())
	for i, item := range batch {
		if title := gjson.GetBytes(item, "title"); title.Exists() {
			fmt.Fprintf(p.out, "  [%d] %s\n", i+1, title.String())
		} else {
			fmt.Fprintf(p.out, "  [%d]\n", i+1)
		}
		body := pretty.PrettyOptions(item, &pretty.Options{Width: 80, Prefix: "      ", Indent: "  "})
		if p.color {
			body = pretty.Color(body, nil)
		}
		fmt.Fprintf(p.out, "%s", body)
	}
}
