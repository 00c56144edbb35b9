package dxf

import (
	"bytes"
	"io"

	"github.com/charmbracelet/log"

	"github.com/geofold/dxfgeo/pkg/geom"
)

// Header holds the drawing variables the pipeline consumes.
type Header struct {
	CodePage   string    // $DWGCODEPAGE
	InsUnits   int       // $INSUNITS
	ExtMin     geom.Vec3 // $EXTMIN
	ExtMax     geom.Vec3 // $EXTMAX
	HasExtents bool
}

// Document is the parsed form of one DXF file.
type Document struct {
	Header   Header
	Layers   *LayerTable
	Blocks   map[string]*Block
	Entities []Entity

	// SkippedEntities counts entities dropped by the best-effort policy.
	SkippedEntities int

	// UnknownKinds counts occurrences of entity type names the parser
	// does not assemble, keyed by type name.
	UnknownKinds map[string]int
}

// ParseOptions tunes a structural parse.
type ParseOptions struct {
	// MemoryCeiling bounds the bytes read; 0 means DefaultMemoryCeiling.
	MemoryCeiling int64

	// Logger receives skip diagnostics. Nil discards them.
	Logger *log.Logger
}

// Parse reads a complete DXF document from r with default options.
func Parse(r io.Reader) (*Document, error) {
	return ParseWithOptions(r, ParseOptions{})
}

// ParseBytes parses an in-memory DXF file, decoding the declared codepage
// first when one is present. The codepage is sniffed from the HEADER
// section before the full parse so legacy single-byte encodings round-trip
// correctly.
func ParseBytes(raw []byte, opts ParseOptions) (*Document, error) {
	if cp := sniffCodepage(raw); cp != "" {
		decoded, err := DecodeCodepage(raw, cp)
		if err == nil {
			raw = decoded
		}
	}
	return ParseWithOptions(bytes.NewReader(raw), opts)
}

// ParseWithOptions reads a complete DXF document from r.
//
// Parsing never fails on malformed entities; it fails only on read errors
// and memory-ceiling violations. A file without an ENTITIES section
// yields a document with an empty entity slice.
func ParseWithOptions(r io.Reader, opts ParseOptions) (*Document, error) {
	ceiling := opts.MemoryCeiling
	if ceiling == 0 {
		ceiling = DefaultMemoryCeiling
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	p := &parser{
		scanner: NewScannerLimit(r, ceiling),
		logger:  logger,
		doc: &Document{
			Layers:       NewLayerTable(),
			Blocks:       make(map[string]*Block),
			UnknownKinds: make(map[string]int),
		},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type parser struct {
	scanner *Scanner
	logger  *log.Logger
	doc     *Document

	// pending holds a tag read past the end of the previous construct.
	pending    Tag
	hasPending bool
}

func (p *parser) next() bool {
	if p.hasPending {
		p.hasPending = false
		return true
	}
	if !p.scanner.Next() {
		return false
	}
	p.pending = p.scanner.Tag()
	return true
}

func (p *parser) tag() Tag {
	return p.pending
}

func (p *parser) pushBack(t Tag) {
	p.pending = t
	p.hasPending = true
}

// run walks the section structure: 0/SECTION, 2/<name>, ..., 0/ENDSEC.
func (p *parser) run() error {
	for p.next() {
		t := p.tag()
		if t.Code != 0 || t.Value != "SECTION" {
			continue
		}
		if !p.next() {
			break
		}
		name := p.tag()
		if name.Code != 2 {
			// A SECTION without its name tag; resynchronize.
			p.pushBack(name)
			continue
		}
		switch name.Text() {
		case "HEADER":
			p.parseHeader()
		case "TABLES":
			p.parseTables()
		case "BLOCKS":
			p.parseBlocks()
		case "ENTITIES":
			p.parseEntities()
		default:
			p.skipSection()
		}
	}
	return p.scanner.Err()
}

func (p *parser) skipSection() {
	for p.next() {
		t := p.tag()
		if t.Code == 0 && t.Value == "ENDSEC" {
			return
		}
	}
}

// parseHeader picks the drawing variables the pipeline cares about.
func (p *parser) parseHeader() {
	var current string
	for p.next() {
		t := p.tag()
		if t.Code == 0 && t.Value == "ENDSEC" {
			return
		}
		switch t.Code {
		case 9:
			current = t.Text()
		case 3:
			if current == "$DWGCODEPAGE" {
				p.doc.Header.CodePage = t.Text()
			}
		case 70:
			if current == "$INSUNITS" {
				p.doc.Header.InsUnits = t.Int()
			}
		case 10:
			switch current {
			case "$EXTMIN":
				p.doc.Header.ExtMin.X = t.Float()
				p.doc.Header.HasExtents = true
			case "$EXTMAX":
				p.doc.Header.ExtMax.X = t.Float()
				p.doc.Header.HasExtents = true
			}
		case 20:
			switch current {
			case "$EXTMIN":
				p.doc.Header.ExtMin.Y = t.Float()
			case "$EXTMAX":
				p.doc.Header.ExtMax.Y = t.Float()
			}
		case 30:
			switch current {
			case "$EXTMIN":
				p.doc.Header.ExtMin.Z = t.Float()
			case "$EXTMAX":
				p.doc.Header.ExtMax.Z = t.Float()
			}
		}
	}
}

// parseTables reads LAYER records; other tables are skipped.
func (p *parser) parseTables() {
	for p.next() {
		t := p.tag()
		if t.Code != 0 {
			continue
		}
		switch t.Value {
		case "ENDSEC":
			return
		case "LAYER":
			p.parseLayerRecord()
		}
	}
}

func (p *parser) parseLayerRecord() {
	layer := Layer{Color: DefaultLayerColor, LineType: DefaultLineType}
	for p.next() {
		t := p.tag()
		if t.Code == 0 {
			p.pushBack(t)
			break
		}
		switch t.Code {
		case 2:
			layer.Name = t.Text()
		case 6:
			layer.LineType = t.Text()
		case 62:
			// Negative color means the layer is off.
			c := t.Int()
			if c < 0 {
				layer.Off = true
				c = -c
			}
			layer.Color = c
		case 70:
			flags := t.Int()
			layer.Frozen = flags&1 != 0
			layer.Locked = flags&4 != 0
		case 370:
			layer.LineWeight = t.Int()
		}
	}
	if layer.Name != "" {
		p.doc.Layers.Put(layer)
	}
}

// parseBlocks collects block definitions with their child entities.
func (p *parser) parseBlocks() {
	for p.next() {
		t := p.tag()
		if t.Code != 0 {
			continue
		}
		switch t.Value {
		case "ENDSEC":
			return
		case "BLOCK":
			p.parseBlockRecord()
		}
	}
}

func (p *parser) parseBlockRecord() {
	block := &Block{}
	// Block header tags until the first child entity or ENDBLK.
	for p.next() {
		t := p.tag()
		if t.Code == 0 {
			p.pushBack(t)
			break
		}
		switch t.Code {
		case 2:
			block.Name = t.Text()
		case 10:
			block.Base.X = t.Float()
		case 20:
			block.Base.Y = t.Float()
		case 30:
			block.Base.Z = t.Float()
		}
	}

	// Child entities until ENDBLK.
	for p.next() {
		t := p.tag()
		if t.Code != 0 {
			continue
		}
		if t.Value == "ENDBLK" {
			break
		}
		if t.Value == "ENDSEC" {
			p.pushBack(t)
			break
		}
		if e := p.parseEntity(t.Value); e != nil {
			block.Entities = append(block.Entities, e)
		}
	}

	if block.Name != "" {
		p.doc.Blocks[normalizeBlockName(block.Name)] = block
	}
}

// parseEntities assembles the ENTITIES section.
func (p *parser) parseEntities() {
	for p.next() {
		t := p.tag()
		if t.Code != 0 {
			continue
		}
		if t.Value == "ENDSEC" {
			return
		}
		if e := p.parseEntity(t.Value); e != nil {
			p.doc.Entities = append(p.doc.Entities, e)
			p.doc.Layers.Ensure(e.Attrs().Layer)
		}
	}
}

// parseEntity collects one entity's tags and assembles a typed record.
// Unknown or malformed entities return nil; the stream continues.
func (p *parser) parseEntity(typeName string) Entity {
	tags := p.collectTags()

	kind := Kind(typeName)
	build, ok := builders[kind]
	if !ok {
		p.doc.UnknownKinds[typeName]++
		return nil
	}

	e, err := build(tags)
	if err != nil {
		p.doc.SkippedEntities++
		p.logger.Debug("skipping malformed entity", "type", typeName, "err", err)
		return nil
	}

	// Heavy POLYLINE carries its vertices as VERTEX child entities
	// terminated by SEQEND.
	if poly, ok := e.(*Polyline); ok && !poly.Lightweight {
		p.collectPolylineVertices(poly)
	}

	return e
}

// collectTags reads tags until the next 0 code, which is pushed back.
func (p *parser) collectTags() []Tag {
	var tags []Tag
	for p.next() {
		t := p.tag()
		if t.Code == 0 {
			p.pushBack(t)
			break
		}
		tags = append(tags, t)
	}
	return tags
}

func (p *parser) collectPolylineVertices(poly *Polyline) {
	for p.next() {
		t := p.tag()
		if t.Code != 0 {
			continue
		}
		switch t.Value {
		case "VERTEX":
			tags := p.collectTags()
			if v, ok := buildVertex(tags); ok {
				poly.Vertices = append(poly.Vertices, v)
			}
		case "SEQEND":
			p.collectTags() // consume the SEQEND body
			return
		default:
			// A non-VERTEX entity before SEQEND terminates the sequence.
			p.pushBack(t)
			return
		}
	}
}

// sniffCodepage scans the first kilobytes of a raw file for the
// $DWGCODEPAGE variable without a full parse.
func sniffCodepage(raw []byte) string {
	head := raw
	if len(head) > 16<<10 {
		head = head[:16<<10]
	}
	idx := bytes.Index(head, []byte("$DWGCODEPAGE"))
	if idx < 0 {
		return ""
	}
	rest := head[idx:]
	lines := bytes.Split(rest, []byte("\n"))
	// Expect: $DWGCODEPAGE, 3, <value>
	if len(lines) >= 3 {
		return string(bytes.TrimSpace(lines[2]))
	}
	return ""
}
