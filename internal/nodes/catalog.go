// Package nodes is the catalog of built-in node types.
package nodes

import (
	"fmt"
	"strings"

	"github.com/danmuck/vidmod/internal/node"
	"github.com/danmuck/vidmod/internal/nodes/constant"
	"github.com/danmuck/vidmod/internal/nodes/convert"
	"github.com/danmuck/vidmod/internal/nodes/imagefile"
	"github.com/danmuck/vidmod/internal/nodes/rawfile"
)

type entry struct {
	info node.TypeInfo
	ctor node.Constructor
}

var builtin = []entry{
	{node.TypeInfo{Name: rawfile.SourceTypeName, Description: "headerless sample file reader"}, rawfile.NewSource},
	{node.TypeInfo{Name: rawfile.SinkTypeName, Description: "headerless sample file writer"}, rawfile.NewSink},
	{node.TypeInfo{Name: convert.TypeName, Description: "numeric kind conversion"}, convert.New},
	{node.TypeInfo{Name: imagefile.SourceTypeName, Description: "8-bit RGBA PNG reader"}, imagefile.NewSource},
	{node.TypeInfo{Name: imagefile.SinkTypeName, Description: "numbered JPEG/PNG writer"}, imagefile.NewSink},
	{node.TypeInfo{Name: constant.TypeName, Description: "unbounded constant value"}, constant.New},
}

// Builtin returns a registry holding the named types, or every built-in
// type when names is empty. "none" entries are skipped.
func Builtin(names ...string) (*node.Registry, error) {
	reg := node.NewRegistry()
	if len(names) == 0 {
		for _, e := range builtin {
			if err := reg.Register(e.info, e.ctor); err != nil {
				return nil, err
			}
		}
		return reg, nil
	}

	seen := make(map[string]struct{})
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" || name == "none" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		e, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", node.ErrUnknownType, name)
		}
		if err := reg.Register(e.info, e.ctor); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func lookup(name string) (entry, bool) {
	for _, e := range builtin {
		if e.info.Name == name {
			return e, true
		}
	}
	return entry{}, false
}
