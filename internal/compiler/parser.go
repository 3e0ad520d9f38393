package compiler

// Instance declares one node: name(Component).
type Instance struct {
	Name      string `json:"name"`
	Component string `json:"component"`
	Line      int    `json:"line"`
	Col       int    `json:"col"`
}

// Edge connects src.SrcPort to dst.DstPort.
type Edge struct {
	Src     string `json:"src"`
	SrcPort string `json:"src_port"`
	Dst     string `json:"dst"`
	DstPort string `json:"dst_port"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
}

// IIP is an initial information packet: 'Literal' -> Port Dst().
// The literal is kept as text; its type is fixed by the destination port.
type IIP struct {
	Literal string `json:"literal"`
	Dst     string `json:"dst"`
	Port    string `json:"port"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
}

// Graph is the syntax tree of a graph program.
// Instances are in first-declaration order.
type Graph struct {
	Instances []Instance `json:"instances"`
	Edges     []Edge     `json:"edges"`
	IIPs      []IIP      `json:"iips"`
}

// Instance returns the declaration of the named node.
func (g *Graph) Instance(name string) (Instance, bool) {
	for _, inst := range g.Instances {
		if inst.Name == name {
			return inst, true
		}
	}
	return Instance{}, false
}

// Parse parses graph text into a Graph.
//
// Statements are separated by lookahead, not by newlines: a chain continues
// while a node is followed by "PORT ->". Instances may be referenced before
// they are declared, but every referenced name must be declared with a
// component type somewhere in the text.
func Parse(text string) (*Graph, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{
		toks:     toks,
		graph:    &Graph{},
		declared: make(map[string]position),
	}
	for !p.at(tokEOF) {
		if p.at(tokComma) {
			p.next()
			continue
		}
		if err := p.statement(); err != nil {
			return nil, err
		}
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}
	return p.graph, nil
}

type parser struct {
	toks     []token
	pos      int
	graph    *Graph
	declared map[string]position
	refs     []nodeRef
}

type nodeRef struct {
	name      string
	component string
	pos       position
}

func (p *parser) peek(n int) token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) at(k tokenKind) bool {
	return p.peek(0).kind == k
}

func (p *parser) next() token {
	t := p.peek(0)
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// continues reports whether the tokens ahead are "PORT ->".
func (p *parser) continues() bool {
	return p.peek(0).kind == tokIdent && p.peek(1).kind == tokArrow
}

func (p *parser) statement() error {
	if p.at(tokLiteral) {
		return p.iip()
	}

	src, err := p.node()
	if err != nil {
		return err
	}
	if src.component == "" && !p.continues() {
		return errorAt(src.pos, "unterminated connection: expected \"PORT -> PORT node\" after %q", src.name)
	}
	return p.chain(src)
}

// iip parses 'literal' -> PORT node, optionally followed by a chain.
func (p *parser) iip() error {
	lit := p.next()
	if !p.at(tokArrow) {
		return errorAt(p.peek(0).pos, "expected '->' after literal, found %s", p.peek(0))
	}
	p.next()

	port, err := p.port()
	if err != nil {
		return err
	}
	dst, err := p.node()
	if err != nil {
		return err
	}
	p.graph.IIPs = append(p.graph.IIPs, IIP{
		Literal: lit.text,
		Dst:     dst.name,
		Port:    port.text,
		Line:    lit.pos.line,
		Col:     lit.pos.col,
	})
	return p.chain(dst)
}

// chain parses any number of "OUT -> IN node" links after src.
func (p *parser) chain(src nodeRef) error {
	for p.continues() {
		out := p.next()
		p.next() // ->

		in, err := p.port()
		if err != nil {
			return err
		}
		dst, err := p.node()
		if err != nil {
			return err
		}
		p.graph.Edges = append(p.graph.Edges, Edge{
			Src:     src.name,
			SrcPort: out.text,
			Dst:     dst.name,
			DstPort: in.text,
			Line:    out.pos.line,
			Col:     out.pos.col,
		})
		src = dst
	}
	return nil
}

func (p *parser) port() (token, error) {
	t := p.peek(0)
	switch t.kind {
	case tokIdent:
		return p.next(), nil
	case tokEOF:
		return t, errorAt(t.pos, "unterminated connection: expected port name")
	default:
		return t, errorAt(t.pos, "expected port name, found %s", t)
	}
}

// node parses name, name() or name(Component). A component type declares
// the instance; the other forms reference it.
func (p *parser) node() (nodeRef, error) {
	t := p.peek(0)
	switch t.kind {
	case tokIdent:
	case tokEOF:
		return nodeRef{}, errorAt(t.pos, "unterminated connection: expected node name")
	default:
		return nodeRef{}, errorAt(t.pos, "expected node name, found %s", t)
	}
	p.next()
	ref := nodeRef{name: t.text, pos: t.pos}

	if p.at(tokLParen) {
		p.next()
		if p.at(tokIdent) {
			ref.component = p.next().text
		}
		if !p.at(tokRParen) {
			return nodeRef{}, errorAt(p.peek(0).pos, "expected ')' after %q, found %s", ref.name, p.peek(0))
		}
		p.next()
	}

	if ref.component == "" {
		p.refs = append(p.refs, ref)
		return ref, nil
	}
	if first, ok := p.declared[ref.name]; ok {
		return nodeRef{}, errorAt(ref.pos, "duplicate instance %q (first declared at %d:%d)", ref.name, first.line, first.col)
	}
	p.declared[ref.name] = ref.pos
	p.graph.Instances = append(p.graph.Instances, Instance{
		Name:      ref.name,
		Component: ref.component,
		Line:      ref.pos.line,
		Col:       ref.pos.col,
	})
	return ref, nil
}

// resolve checks that every reference names a declared instance.
func (p *parser) resolve() error {
	for _, ref := range p.refs {
		if _, ok := p.declared[ref.name]; !ok {
			return errorAt(ref.pos, "undeclared instance %q", ref.name)
		}
	}
	return nil
}
