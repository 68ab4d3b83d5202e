package main

import (
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/framegraph/render"
)

var treeFlags struct {
	pipeline string
	profile  string
	set      []string
	path     string
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print a pipeline's configuration tree as YAML",
	Long: `Builds the pipeline without rendering, applies the profile and --set
overrides, and prints every node with its enabled flag, version and
parameters. The paths printed are the ones --set, profiles and the debug
surface accept.`,
	Args: cobra.NoArgs,
	RunE: runTree,
}

func init() {
	f := treeCmd.Flags()
	f.StringVar(&treeFlags.pipeline, "pipeline", "", "Pipeline name (default: render.pipeline)")
	f.StringVar(&treeFlags.profile, "profile", "", "Override profile to apply")
	f.StringArrayVar(&treeFlags.set, "set", nil, "Override as path=value (repeatable)")
	f.StringVar(&treeFlags.path, "path", "", "Print only this node")
}

func runTree(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.ApplyDefaults()
	rc := cfg.Render
	if treeFlags.pipeline != "" {
		rc.Pipeline = treeFlags.pipeline
	}
	if treeFlags.profile != "" {
		rc.Profile = treeFlags.profile
	}
	rc.Set = append(rc.Set, treeFlags.set...)

	p, err := buildPipeline(rc, nil)
	if err != nil {
		return err
	}

	var out any
	if treeFlags.path != "" {
		node, err := p.Config().SnapshotOf(treeFlags.path)
		if err != nil {
			return err
		}
		out = node
	} else {
		out = struct {
			Pipeline string                `yaml:"pipeline"`
			Nodes    []render.NodeSnapshot `yaml:"nodes"`
		}{p.Name(), p.Config().Snapshot()}
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(out)
}
