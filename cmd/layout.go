package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kelisiWu123/hardware-game/sim/layout"
	"github.com/kelisiWu123/hardware-game/sim/scenario"
)

var (
	layoutWidth      float64 // canvas width override
	layoutHeight     float64 // canvas height override
	layoutIterations int     // iteration count override
)

// layoutCmd arranges a scenario's devices and prints the new positions as
// scenario YAML, ready to paste back into the file.
var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Auto-arrange a scenario's devices with the force-directed layout",
	Run: func(cmd *cobra.Command, args []string) {
		opts := layoutFlags{}
		if cmd.Flags().Changed("width") {
			opts.width = &layoutWidth
		}
		if cmd.Flags().Changed("height") {
			opts.height = &layoutHeight
		}
		if cmd.Flags().Changed("iterations") {
			opts.iterations = &layoutIterations
		}
		if err := runLayout(os.Stdout, scenarioPath, opts); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

type layoutFlags struct {
	width      *float64
	height     *float64
	iterations *int
}

// layoutOutput is what the layout command prints.
type layoutOutput struct {
	Before  float64               `yaml:"score_before"`
	After   float64               `yaml:"score_after"`
	Devices []scenario.DeviceSpec `yaml:"devices"`
}

func runLayout(out io.Writer, path string, flags layoutFlags) error {
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}
	store, err := sc.Build()
	if err != nil {
		return fmt.Errorf("building scenario: %w", err)
	}

	width, height := sc.CanvasSize()
	if flags.width != nil {
		width = *flags.width
	}
	if flags.height != nil {
		height = *flags.height
	}
	opts := sc.LayoutOptions()
	if flags.iterations != nil {
		opts.Iterations = *flags.iterations
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid layout options: %w", err)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("canvas must be positive, got %gx%g", width, height)
	}

	devices, conns := store.Devices(), store.Connections()
	arranged := layout.Layout(devices, conns, width, height, opts)
	result := layoutOutput{
		Before:  layout.Score(devices, conns),
		After:   layout.Score(arranged, conns),
		Devices: make([]scenario.DeviceSpec, len(arranged)),
	}
	for i, d := range arranged {
		result.Devices[i] = scenario.DeviceSpec{ID: d.ID, Type: string(d.Type), X: d.Position.X, Y: d.Position.Y}
	}
	logrus.Infof("layout %q: score %.1f -> %.1f", sc.Name, result.Before, result.After)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("writing layout: %w", err)
	}
	return enc.Close()
}

func init() {
	layoutCmd.Flags().Float64Var(&layoutWidth, "width", 0, "Canvas width (defaults to the scenario canvas)")
	layoutCmd.Flags().Float64Var(&layoutHeight, "height", 0, "Canvas height (defaults to the scenario canvas)")
	layoutCmd.Flags().IntVar(&layoutIterations, "iterations", 0, "Layout iterations (defaults to the scenario layout options)")
	rootCmd.AddCommand(layoutCmd)
}
