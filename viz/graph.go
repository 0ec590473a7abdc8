// ABOUTME: GraphViz rendering of the engagement pipeline and of a single engagement's phases
// ABOUTME: Works on cached view-models so graphs always show derived phase and staleness
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/pursuit/models"
)

// GraphGenerator renders DOT graphs.
type GraphGenerator struct {
	format graphviz.Format
}

func NewGraphGenerator() *GraphGenerator {
	return &GraphGenerator{format: graphviz.XDOT}
}

var phaseColors = map[models.PhaseStatus]string{
	models.PhasePending:    "white",
	models.PhaseInProgress: "lightyellow",
	models.PhaseComplete:   "lightgreen",
	models.PhaseBlocked:    "lightpink",
	models.PhaseSkipped:    "lightgray",
}

// GeneratePipelineGraph draws the phase chain left to right with every
// engagement hung off its current phase. Archived engagements are left out.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context, engagements []*models.EngagementViewModel) (string, error) {
	return g.render(ctx, "Engagement Pipeline", func(graph *cgraph.Graph) error {
		phaseNodes, err := phaseChain(graph, "phase", nil)
		if err != nil {
			return err
		}

		for _, vm := range engagements {
			if vm.IsArchived {
				continue
			}
			node, err := graph.CreateNodeByName("eng_" + shortID(vm.ID))
			if err != nil {
				return fmt.Errorf("failed to create engagement node: %w", err)
			}
			label := vm.Company
			if vm.DealValue > 0 {
				label += fmt.Sprintf("\n$%dK", vm.DealValue/100000)
			}
			node.SetLabel(label)
			node.SetShape("box")
			node.SetStyle("filled")
			switch {
			case vm.IsStale:
				node.SetFillColor("salmon")
			case vm.EngagementStatus == models.StatusOnHold || vm.EngagementStatus == models.StatusUnresponsive:
				node.SetFillColor("lightgray")
			default:
				node.SetFillColor("lightblue")
			}

			if phase, ok := phaseNodes[vm.CurrentPhase]; ok {
				edge, err := graph.CreateEdgeByName("in_"+shortID(vm.ID), phase, node)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetStyle("dashed")
				edge.SetDir("none")
			}
		}
		return nil
	})
}

// GenerateEngagementGraph draws one engagement's phases colored by status.
func (g *GraphGenerator) GenerateEngagementGraph(ctx context.Context, vm *models.EngagementViewModel) (string, error) {
	return g.render(ctx, vm.Company, func(graph *cgraph.Graph) error {
		phaseNodes, err := phaseChain(graph, "phase", vm.Phases)
		if err != nil {
			return err
		}
		if current, ok := phaseNodes[vm.CurrentPhase]; ok {
			current.SetPenWidth(3)
		}

		for i, owner := range vm.OwnerNames {
			node, err := graph.CreateNodeByName(fmt.Sprintf("owner_%d", i))
			if err != nil {
				return fmt.Errorf("failed to create owner node: %w", err)
			}
			node.SetLabel(owner)
			node.SetShape("ellipse")
			if current, ok := phaseNodes[vm.CurrentPhase]; ok {
				edge, err := graph.CreateEdgeByName(fmt.Sprintf("owns_%d", i), node, current)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetStyle("dotted")
			}
		}
		return nil
	})
}

// phaseChain creates one node per configured phase, linked in order. With
// phases given the nodes are filled by status.
func phaseChain(graph *cgraph.Graph, prefix string, phases map[models.PhaseType]models.Phase) (map[models.PhaseType]*cgraph.Node, error) {
	nodes := make(map[models.PhaseType]*cgraph.Node, len(models.PhaseTypes))
	var prev *cgraph.Node
	for _, t := range models.PhaseTypes {
		node, err := graph.CreateNodeByName(prefix + "_" + string(t))
		if err != nil {
			return nil, fmt.Errorf("failed to create phase node: %w", err)
		}
		node.SetShape("cds")
		node.SetStyle("filled")
		label := string(t)
		color := "lightsteelblue"
		if p, ok := phases[t]; ok {
			label += "\n" + string(p.Status)
			color = phaseColors[p.Status]
		}
		node.SetLabel(label)
		node.SetFillColor(color)
		nodes[t] = node

		if prev != nil {
			edge, err := graph.CreateEdgeByName("next_"+string(t), prev, node)
			if err != nil {
				return nil, fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetPenWidth(2)
		}
		prev = node
	}
	return nodes, nil
}

func (g *GraphGenerator) render(ctx context.Context, label string, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		_ = gv.Close()
	}()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		_ = graph.Close()
	}()

	graph.SetLabel(label)
	graph.SetRankDir(cgraph.LRRank)
	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, g.format, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
