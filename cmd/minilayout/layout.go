package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/arloliu/minipb/errs"
	"github.com/arloliu/minipb/minitable"
	"github.com/arloliu/minipb/pbbridge"
	"github.com/arloliu/minipb/schemafile"
)

// table is one message type to print together with the extensions that extend it.
type table struct {
	mt   *minitable.MiniTable
	exts []*minitable.Extension
}

func fromSchemaFile(path string) ([]*table, error) {
	s, err := schemafile.Load(path)
	if err != nil {
		return nil, err
	}

	tables := make([]*table, 0, len(s.Names()))
	byName := make(map[string]*table)
	for _, name := range s.Names() {
		mt, err := s.Table(name)
		if err != nil {
			return nil, err
		}
		t := &table{mt: mt}
		byName[name] = t
		tables = append(tables, t)
	}
	for _, ext := range s.Extensions() {
		t := byName[ext.Extendee().Name()]
		t.exts = append(t.exts, ext)
	}

	return tables, nil
}

func fromProtoFile(logger zerolog.Logger, importPath, path string) ([]*table, error) {
	rel, err := filepath.Rel(importPath, path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s against %s: %w", path, importPath, err)
	}

	p := protoparse.Parser{ImportPaths: []string{importPath}}
	fds, err := p.ParseFiles(filepath.ToSlash(rel))
	if err != nil {
		return nil, err
	}
	fd := fds[0].UnwrapFile()

	loader := pbbridge.NewLoader(pbbridge.WithLogger(logger))

	var (
		tables []*table
		byName = make(map[string]*table)
	)
	var walk func(mds protoreflect.MessageDescriptors) error
	walk = func(mds protoreflect.MessageDescriptors) error {
		for i := 0; i < mds.Len(); i++ {
			md := mds.Get(i)
			if md.IsMapEntry() {
				continue
			}
			mt, err := loader.Load(md)
			if err != nil {
				return err
			}
			t := &table{mt: mt}
			byName[mt.Name()] = t
			tables = append(tables, t)
			if err := walk(md.Messages()); err != nil {
				return err
			}
		}

		return nil
	}
	if err := walk(fd.Messages()); err != nil {
		return nil, err
	}

	reg, err := loader.FileRegistry(fd)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("extensions", reg.Len()).Str("file", path).Msg("proto file loaded")

	var xds []protoreflect.ExtensionDescriptor
	xds = collectExtensions(xds, fd.Extensions(), fd.Messages())
	for _, xd := range xds {
		ext, err := loader.Extension(xd)
		if err != nil {
			return nil, err
		}
		if t, ok := byName[ext.Extendee().Name()]; ok {
			t.exts = append(t.exts, ext)
		}
	}

	return tables, nil
}

func collectExtensions(dst []protoreflect.ExtensionDescriptor, xds protoreflect.ExtensionDescriptors, mds protoreflect.MessageDescriptors) []protoreflect.ExtensionDescriptor {
	for i := 0; i < xds.Len(); i++ {
		dst = append(dst, xds.Get(i))
	}
	for i := 0; i < mds.Len(); i++ {
		md := mds.Get(i)
		dst = collectExtensions(dst, md.Extensions(), md.Messages())
	}

	return dst
}

func selectTable(tables []*table, name string) ([]*table, error) {
	for _, t := range tables {
		if t.mt.Name() == name {
			return []*table{t}, nil
		}
	}

	return nil, fmt.Errorf("%w: message %q", errs.ErrSchemaNotFound, name)
}

func render(w io.Writer, tables []*table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := renderTable(w, t); err != nil {
			return err
		}
	}

	return nil
}

func renderTable(w io.Writer, t *table) error {
	mt := t.mt
	fmt.Fprintf(w, "message %s: size=%d hasbit_bytes=%d fields=%d\n", mt.Name(), mt.Size(), mt.HasbitBytes(), mt.NumFields())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAME\tTYPE\tMODE\tOFFSET\tPRESENCE")
	for f := range mt.Fields() {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%d\t%s\n", f.Number(), f.Name(), typeName(f), f.Mode(), f.Offset(), presence(f))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, o := range mt.Oneofs() {
		nums := make([]string, len(o.Numbers))
		for i, n := range o.Numbers {
			nums[i] = fmt.Sprint(n)
		}
		fmt.Fprintf(w, "  oneof %s: case@%d data@%d members=[%s]\n", o.Name, o.CaseOffset, o.DataOffset, strings.Join(nums, " "))
	}

	for _, ext := range t.exts {
		f := ext.Field()
		_, err := fmt.Fprintf(w, "  extension %d %s %s %s\n", f.Number(), f.Name(), typeName(f), f.Mode())
		if err != nil {
			return err
		}
	}

	return nil
}

func typeName(f *minitable.Field) string {
	switch {
	case f.IsMap():
		return fmt.Sprintf("map<%s,%s>", f.MapKey().Type(), typeName(f.MapValue()))
	case f.Type() == minitable.TypeMessage && f.SubMessage() != nil:
		return f.SubMessage().Name()
	default:
		return f.Type().String()
	}
}

func presence(f *minitable.Field) string {
	switch f.Presence() {
	case minitable.PresenceHasbit:
		bit, _ := f.Hasbit()
		return fmt.Sprintf("hasbit %d", bit)
	case minitable.PresenceOneof:
		off, _ := f.OneofCaseOffset()
		return fmt.Sprintf("oneof@%d", off)
	case minitable.PresenceImplicit:
		return "implicit"
	default:
		return "-"
	}
}
