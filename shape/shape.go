package shape

import (
	"strconv"
	"strings"

	. "github.com/stevegt/goadapt"
	"github.com/xiam/sexpr/ast"
	"github.com/xiam/sexpr/parser"
)

// Activation is the only activation function a shape may name.
const Activation = "sigmoid"

// Shape describes a single-hidden-layer network:
//
//	(name in1 in2 ... (sigmoid hiddenCount) (sigmoid out1 out2 ...))
//
// LayerShapes always holds exactly two layers, hidden then output.
type Shape struct {
	Name        string
	InputNames  []string
	OutputNames []string
	LayerShapes []*LayerShape
}

func (s *Shape) String() (out string) {
	inputNames := strings.Join(s.InputNames, " ")
	layersParts := []string{}
	for _, layer := range s.LayerShapes {
		layersParts = append(layersParts, layer.String())
	}
	layers := strings.Join(layersParts, " ")
	out = Spf("(%s %s %s)", s.Name, inputNames, layers)
	return
}

// SetOutputNames copies the output layer's node names into
// OutputNames.
func (s *Shape) SetOutputNames() {
	lastLayer := s.LayerShapes[len(s.LayerShapes)-1]
	s.OutputNames = lastLayer.OutputNames()
}

func (s *Shape) InputCount() int  { return len(s.InputNames) }
func (s *Shape) HiddenCount() int { return len(s.LayerShapes[0].Nodes) }
func (s *Shape) OutputCount() int { return len(s.OutputNames) }

type LayerShape struct {
	Nodes []*NodeShape
}

func (s *LayerShape) String() (out string) {
	// group nodes by activation in order of first appearance
	var order []string
	hiddenGroups := make(map[string]int)
	outputGroups := make(map[string][]string)
	for _, node := range s.Nodes {
		actName := node.ActivationName
		if hiddenGroups[actName] == 0 && len(outputGroups[actName]) == 0 {
			order = append(order, actName)
		}
		if node.Name != "" {
			outputGroups[actName] = append(outputGroups[actName], node.Name)
		} else {
			hiddenGroups[actName]++
		}
	}
	isOutput := len(outputGroups) > 0
	isHidden := len(hiddenGroups) > 0
	// xor
	Assert(isHidden != isOutput, "layer has both hidden and output nodes")

	groups := []string{}
	for _, actName := range order {
		if isHidden {
			groups = append(groups, Spf("(%s %d)", actName, hiddenGroups[actName]))
		} else {
			groups = append(groups, Spf("(%s %s)", actName, strings.Join(outputGroups[actName], " ")))
		}
	}

	if len(groups) == 1 {
		out = groups[0]
	} else {
		out = Spf("(+ %s)", strings.Join(groups, " "))
	}
	return
}

func (s *LayerShape) OutputNames() (names []string) {
	for i := 0; i < len(s.Nodes); i++ {
		names = append(names, s.Nodes[i].Name)
	}
	return
}

type NodeShape struct {
	Name           string
	ActivationName string
}

// SyntaxError is a syntax error.
type SyntaxError struct {
	msg  string
	node *ast.Node
}

func (e *SyntaxError) Error() string {
	return Spf("[shape:%s] %s:\n%s", e.Pos(), e.msg, e.node.String())
}

// Pos returns the line and column of the offending node, or "-" for
// nodes without a token such as the root list.
func (e *SyntaxError) Pos() string {
	tok := e.node.Token()
	if tok == nil {
		return "-"
	}
	return tok.Pos().String()
}

// synck raises a syntax err if cond is false.
func synck(node *ast.Node, cond bool, args ...interface{}) {
	if !cond {
		msg := FormatArgs(args...)
		panic(&SyntaxError{msg, node})
	}
}

// catchSyntax turns a raised *SyntaxError into err.  Defer it after
// Return so it runs first.
func catchSyntax(err *error) {
	r := recover()
	if r == nil {
		return
	}
	se, ok := r.(*SyntaxError)
	if !ok {
		panic(r)
	}
	*err = se
}

// Parse parses a shape description.
func Parse(txt string) (s *Shape, err error) {
	defer Return(&err)
	defer catchSyntax(&err)
	root, err := parser.Parse([]byte(txt))
	Ck(err)

	// root is a list
	synck(root, root.Type() == ast.NodeTypeList, "root is not a list")
	// root has one child
	children := root.List()
	synck(root, len(children) == 1, "root has %d children", len(children))
	// root's child is an expression
	expr := children[0]
	synck(expr, expr.Type() == ast.NodeTypeExpression, "root's child is not an expression")
	s, err = parseShape(expr)
	Ck(err)

	return
}

type Expr struct {
	Op   string
	Args []Expr
}

func parseShape(n *ast.Node) (s *Shape, err error) {
	defer Return(&err)

	s = &Shape{}

	expr, err := parseExpr(n)
	Ck(err)
	s.Name = expr.Op
	for _, arg := range expr.Args {
		if len(arg.Args) == 0 {
			synck(n, len(s.LayerShapes) == 0, "input name %s after a layer", arg.Op)
			s.InputNames = append(s.InputNames, arg.Op)
		} else {
			layerShape := parseLayer(n, arg)
			s.LayerShapes = append(s.LayerShapes, layerShape)
		}
	}
	synck(n, len(s.InputNames) > 0, "no input names")
	synck(n, len(s.LayerShapes) == 2, "want one hidden and one output layer, got %d layers", len(s.LayerShapes))
	for _, node := range s.LayerShapes[0].Nodes {
		synck(n, node.Name == "", "hidden layer node %s is named", node.Name)
	}
	for _, node := range s.LayerShapes[1].Nodes {
		synck(n, node.Name != "", "output layer has an unnamed node")
	}
	s.SetOutputNames()
	return
}

func parseLayer(n *ast.Node, arg Expr) (layerShape *LayerShape) {
	layerShape = &LayerShape{}
	if arg.Op == "+" {
		// node groups
		for _, groupExpr := range arg.Args {
			subLayerShape := parseLayer(n, groupExpr)
			layerShape.Nodes = append(layerShape.Nodes, subLayerShape.Nodes...)
		}
	} else {
		actName := arg.Op
		synck(n, actName == Activation, "unsupported activation %s", actName)
		for _, nodeExpr := range arg.Args {
			// nodeExpr.Op is either a node count or an output name
			count, err := strconv.Atoi(nodeExpr.Op)
			if err != nil {
				// it's an output name
				node := &NodeShape{}
				node.Name = nodeExpr.Op
				node.ActivationName = actName
				layerShape.Nodes = append(layerShape.Nodes, node)
			} else {
				synck(n, count > 0, "node count %d is not positive", count)
				for i := 0; i < count; i++ {
					node := &NodeShape{}
					node.ActivationName = actName
					layerShape.Nodes = append(layerShape.Nodes, node)
				}
			}
		}
	}
	synck(n, len(layerShape.Nodes) > 0, "empty layer %s", arg.Op)
	return
}

func parseExpr(n *ast.Node) (expr *Expr, err error) {
	defer Return(&err)
	children := n.List()
	synck(n, len(children) > 0, "missing opcode")
	synck(n, children[0].Type() == ast.NodeTypeSymbol, "first word is not a symbol")
	expr = &Expr{}
	expr.Op = children[0].Encode()
	for i := 1; i < len(children); i++ {
		switch children[i].Type() {
		case ast.NodeTypeSymbol, ast.NodeTypeInt, ast.NodeTypeFloat, ast.NodeTypeString:
			expr.Args = append(expr.Args, Expr{children[i].Encode(), nil})
		case ast.NodeTypeExpression:
			arg, err := parseExpr(children[i])
			Ck(err)
			expr.Args = append(expr.Args, *arg)
		default:
			synck(children[i], false, "unknown node type %v", children[i].Type())
		}
	}
	return
}
