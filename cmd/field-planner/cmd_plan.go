package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"field-planner/internal/config"
	"field-planner/internal/crops"
	"field-planner/internal/geometry"
	"field-planner/internal/planner"
)

// planConcurrency caps how many routes of a job are planned at once.
const planConcurrency = 4

var planFlags struct {
	out      string
	format   string
	graphDir string
}

var planCmd = &cobra.Command{
	Use:   "plan <job.yaml>",
	Short: "Plan the routes of a job file and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&planFlags.out, "out", "o", "", "write the result to a file instead of stdout")
	planCmd.Flags().StringVar(&planFlags.format, "format", "json", "output format: json or geojson")
	planCmd.Flags().StringVar(&planFlags.graphDir, "graph-dir", "", "dump each route's planning graph into this directory")
}

// planJob is a batch of routes to plan across one field.
type planJob struct {
	Field  []geometry.Point `yaml:"field"`
	Width  float64          `yaml:"width"`
	Crops  string           `yaml:"crops"`
	Routes []planRoute      `yaml:"routes"`
}

type planRoute struct {
	Name  string         `yaml:"name"`
	Start geometry.Point `yaml:"start"`
	Goal  geometry.Point `yaml:"goal"`
}

type planResult struct {
	Name   string           `json:"name"`
	Found  bool             `json:"found"`
	Length float64          `json:"length,omitempty"`
	Path   []geometry.Point `json:"path,omitempty"`
}

func loadJob(path string) (planJob, error) {
	var job planJob

	data, err := os.ReadFile(path)
	if err != nil {
		return job, fmt.Errorf("read job: %w", err)
	}
	if err := yaml.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("parse job %s: %w", path, err)
	}

	if job.Width == 0 {
		job.Width = config.Default().Width
	}
	if len(job.Routes) == 0 {
		return job, fmt.Errorf("job %s has no routes", path)
	}
	for i := range job.Routes {
		if job.Routes[i].Name == "" {
			job.Routes[i].Name = fmt.Sprintf("route-%d", i+1)
		}
	}
	return job, nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	job, err := loadJob(args[0])
	if err != nil {
		return err
	}

	var oracle planner.FruitOracle
	if job.Crops != "" {
		patches, err := crops.Load(job.Crops)
		if err != nil {
			return err
		}
		oracle = crops.NewMap(patches)
	} else {
		oracle = planner.OracleFunc(func(x, y, width float64) bool { return false })
	}

	log.Printf("🧭 Planning %d routes at width %.1f", len(job.Routes), job.Width)

	p := planner.New(oracle)
	field := geometry.Polygon{Vertices: job.Field}
	results := make([]planResult, len(job.Routes))

	g := new(errgroup.Group)
	g.SetLimit(planConcurrency)
	for i, route := range job.Routes {
		i, route := i, route
		g.Go(func() error {
			path, graph, err := p.FindPath(route.Start, route.Goal, field, job.Width)
			if err != nil {
				return fmt.Errorf("route %s: %w", route.Name, err)
			}
			results[i] = planResult{
				Name:   route.Name,
				Found:  path != nil,
				Length: geometry.Length(path),
				Path:   path,
			}
			if planFlags.graphDir != "" && graph != nil {
				return planner.SaveGraph(graph, filepath.Join(planFlags.graphDir, route.Name+".json"))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var data []byte
	switch planFlags.format {
	case "json":
		data, err = json.MarshalIndent(map[string]interface{}{
			"width":  job.Width,
			"routes": results,
		}, "", "  ")
	case "geojson":
		data, err = json.MarshalIndent(routesToGeoJSON(results), "", "  ")
	default:
		return fmt.Errorf("unknown format %q", planFlags.format)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if planFlags.out != "" {
		return os.WriteFile(planFlags.out, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// routesToGeoJSON renders the found routes as a feature collection of
// line strings.
func routesToGeoJSON(results []planResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, res := range results {
		if !res.Found {
			continue
		}
		line := make(orb.LineString, len(res.Path))
		for i, p := range res.Path {
			line[i] = p.Orb()
		}
		f := geojson.NewFeature(line)
		f.Properties["name"] = res.Name
		f.Properties["length"] = res.Length
		fc.Append(f)
	}
	return fc
}
