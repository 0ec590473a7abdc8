// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/viz"
)

// VizDashboardCommand prints the pipeline dashboard.
func VizDashboardCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("viz dashboard", flag.ExitOnError)
	_ = fs.Parse(args)

	stats := viz.GenerateDashboardStats(coord.List(), time.Now())
	fmt.Fprint(stdout, viz.RenderDashboard(stats))
	return nil
}

// VizGraphPipelineCommand generates a pipeline graph of every open engagement.
func VizGraphPipelineCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("viz graph pipeline", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	generator := viz.NewGraphGenerator()
	dot, err := generator.GeneratePipelineGraph(context.Background(), coord.List())
	if err != nil {
		return err
	}
	return writeGraph(*output, dot)
}

// VizGraphEngagementCommand generates the phase and owner graph for one engagement.
func VizGraphEngagementCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("viz graph engagement", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}

	generator := viz.NewGraphGenerator()
	dot, err := generator.GenerateEngagementGraph(context.Background(), vm)
	if err != nil {
		return err
	}
	return writeGraph(*output, dot)
}

func writeGraph(output, dot string) error {
	if output != "" {
		return os.WriteFile(output, []byte(dot), 0644)
	}
	fmt.Fprintln(stdout, dot)
	return nil
}
