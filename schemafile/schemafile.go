package schemafile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arloliu/minipb/errs"
	"github.com/arloliu/minipb/internal/collision"
	"github.com/arloliu/minipb/minitable"
)

// Labels accepted in the label key of a field.
const (
	LabelOptional = "optional"
	LabelImplicit = "implicit"
	LabelRepeated = "repeated"
	LabelMap      = "map"
)

type fileDecl struct {
	Messages   []messageDecl `toml:"message"`
	Extensions []extDecl     `toml:"extension"`
}

type messageDecl struct {
	Name   string      `toml:"name"`
	Fields []fieldDecl `toml:"field"`
}

type fieldDecl struct {
	Number  int32  `toml:"number"`
	Name    string `toml:"name"`
	Type    string `toml:"type"`
	Label   string `toml:"label"`
	Message string `toml:"message"`
	Key     string `toml:"key"`
	Value   string `toml:"value"`
	Oneof   string `toml:"oneof"`
}

type extDecl struct {
	Extendee string `toml:"extendee"`
	fieldDecl
}

// Schema is the set of message types and extensions of one schema file.
type Schema struct {
	tables   map[string]*minitable.MiniTable
	names    *collision.Tracker
	exts     []*minitable.Extension
	registry *minitable.ExtensionRegistry
}

// Load reads and builds the schema file at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	return Parse(data)
}

// Parse builds a schema from TOML source.
//
// Returns an error wrapping errs.ErrInvalidSchema for malformed declarations,
// unknown keys and unresolved message references.
func Parse(data []byte) (*Schema, error) {
	var decl fileDecl
	meta, err := toml.Decode(string(data), &decl)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidSchema, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return nil, fmt.Errorf("%w: unknown keys %s", errs.ErrInvalidSchema, strings.Join(keys, ", "))
	}

	s := &Schema{
		tables: make(map[string]*minitable.MiniTable, len(decl.Messages)),
		names:  collision.NewTracker(),
	}
	for _, md := range decl.Messages {
		if err := s.build(md); err != nil {
			return nil, err
		}
	}
	for _, md := range decl.Messages {
		if err := s.link(md); err != nil {
			return nil, err
		}
	}

	s.registry = minitable.NewExtensionRegistry()
	for _, xd := range decl.Extensions {
		ext, err := s.buildExtension(xd)
		if err != nil {
			return nil, err
		}
		if err := s.registry.Add(ext); err != nil {
			return nil, err
		}
		s.exts = append(s.exts, ext)
	}

	return s, nil
}

// Table returns the table of the named message type.
// Returns an error wrapping errs.ErrSchemaNotFound when the file does not declare it.
func (s *Schema) Table(name string) (*minitable.MiniTable, error) {
	mt, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: message %q", errs.ErrSchemaNotFound, name)
	}

	return mt, nil
}

// Names returns the declared message type names in declaration order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names.Names()...)
}

// HasIDCollision reports whether two declared message types share a type ID.
// Such types remain usable but their hashes are seeded identically.
func (s *Schema) HasIDCollision() bool {
	return s.names.HasCollision()
}

// SortedNames returns the declared message type names alphabetically.
func (s *Schema) SortedNames() []string {
	names := s.Names()
	sort.Strings(names)

	return names
}

// Extensions returns the declared extensions in declaration order.
func (s *Schema) Extensions() []*minitable.Extension {
	return append([]*minitable.Extension(nil), s.exts...)
}

// Registry returns a registry holding every declared extension.
func (s *Schema) Registry() *minitable.ExtensionRegistry {
	return s.registry
}

func (s *Schema) build(md messageDecl) error {
	if err := s.names.Track(md.Name); err != nil {
		return err
	}

	b := minitable.NewBuilder(md.Name)
	var (
		oneofNames []string
		oneofDefs  = make(map[string][]minitable.FieldDef)
	)
	for _, fd := range md.Fields {
		def, err := fieldDef(md.Name, fd)
		if err != nil {
			return err
		}
		if fd.Oneof == "" {
			b.Add(def)
			continue
		}
		if _, ok := oneofDefs[fd.Oneof]; !ok {
			oneofNames = append(oneofNames, fd.Oneof)
		}
		oneofDefs[fd.Oneof] = append(oneofDefs[fd.Oneof], def)
	}
	for _, name := range oneofNames {
		b.AddOneof(name, oneofDefs[name]...)
	}

	mt, err := b.Build()
	if err != nil {
		return err
	}
	s.tables[md.Name] = mt

	return nil
}

func (s *Schema) link(md messageDecl) error {
	mt := s.tables[md.Name]
	for _, fd := range md.Fields {
		if !refersToMessage(fd) {
			continue
		}
		sub, err := s.resolve(md.Name, fd)
		if err != nil {
			return err
		}
		if err := mt.SetSubMessage(fd.Number, sub); err != nil {
			return err
		}
	}

	return nil
}

func (s *Schema) buildExtension(xd extDecl) (*minitable.Extension, error) {
	extendee, ok := s.tables[xd.Extendee]
	if !ok {
		return nil, fmt.Errorf("%w: extension %q extends unknown message %q", errs.ErrInvalidSchema, xd.Name, xd.Extendee)
	}
	if xd.Label == LabelMap || xd.Label == LabelImplicit || xd.Oneof != "" {
		return nil, fmt.Errorf("%w: extension %q: only optional and repeated labels are allowed", errs.ErrInvalidSchema, xd.Name)
	}

	def, err := fieldDef(xd.Extendee, xd.fieldDecl)
	if err != nil {
		return nil, err
	}
	ext, err := minitable.NewExtension(extendee, def)
	if err != nil {
		return nil, err
	}
	if refersToMessage(xd.fieldDecl) {
		sub, err := s.resolve(xd.Extendee, xd.fieldDecl)
		if err != nil {
			return nil, err
		}
		if err := ext.SetSubMessage(sub); err != nil {
			return nil, err
		}
	}

	return ext, nil
}

func (s *Schema) resolve(owner string, fd fieldDecl) (*minitable.MiniTable, error) {
	if fd.Message == "" {
		return nil, fmt.Errorf("%w: %s.%s: message type not named", errs.ErrInvalidSchema, owner, fd.Name)
	}
	sub, ok := s.tables[fd.Message]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s: unknown message %q", errs.ErrInvalidSchema, owner, fd.Name, fd.Message)
	}

	return sub, nil
}

func refersToMessage(fd fieldDecl) bool {
	if fd.Label == LabelMap {
		return fd.Value == minitable.TypeMessage.String()
	}

	return fd.Type == minitable.TypeMessage.String()
}

func fieldDef(owner string, fd fieldDecl) (minitable.FieldDef, error) {
	def := minitable.FieldDef{Number: fd.Number, Name: fd.Name}

	switch fd.Label {
	case "", LabelOptional:
		def.Mode = minitable.ModeScalar
	case LabelImplicit:
		def.Mode, def.Implicit = minitable.ModeScalar, true
	case LabelRepeated:
		def.Mode = minitable.ModeArray
	case LabelMap:
		def.Mode = minitable.ModeMap
		key, err := parseType(owner, fd, fd.Key)
		if err != nil {
			return def, err
		}
		value, err := parseType(owner, fd, fd.Value)
		if err != nil {
			return def, err
		}
		def.Key, def.Value = key, value

		return def, nil
	default:
		return def, fmt.Errorf("%w: %s.%s: unknown label %q", errs.ErrInvalidSchema, owner, fd.Name, fd.Label)
	}

	typ, err := parseType(owner, fd, fd.Type)
	if err != nil {
		return def, err
	}
	def.Type = typ

	return def, nil
}

func parseType(owner string, fd fieldDecl, name string) (minitable.FieldType, error) {
	typ, ok := minitable.ParseFieldType(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s: unknown type %q", errs.ErrInvalidSchema, owner, fd.Name, name)
	}

	return typ, nil
}
