package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
)

var meshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Mesh one formula and write Wavefront OBJ to stdout",
	Example: `  meshd mesh --formula "x^2+y^2+z^2-30" --limits 10
  meshd mesh --example Torus --algorithm dual_contour > torus.obj`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, s, _, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		p, err := meshParams(cmd)
		if err != nil {
			return err
		}
		doc, err := s.Mesh(cmd.Context(), p)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), doc.Text())
		return err
	},
}

func meshParams(cmd *cobra.Command) (params.Generation, error) {
	p := params.Default()
	if name, _ := cmd.Flags().GetString("example"); name != "" {
		ex, ok := params.LookupExample(name)
		if !ok {
			return p, fmt.Errorf("unknown example %q", name)
		}
		p.Formula = ex.Formula
	}
	if cmd.Flags().Changed("formula") {
		p.Formula, _ = cmd.Flags().GetString("formula")
	}
	p.Limits, _ = cmd.Flags().GetInt("limits")
	alg, _ := cmd.Flags().GetString("algorithm")
	a, err := params.ParseAlgorithm(alg)
	if err != nil {
		return p, err
	}
	p.Algorithm = a
	return p, nil
}

func init() {
	rootCmd.AddCommand(meshCmd)
	meshCmd.SetOut(os.Stdout)
	meshCmd.Flags().StringP("formula", "f", params.Default().Formula, "surface formula f(x, y, z)")
	meshCmd.Flags().StringP("example", "e", "", "use a predefined example by name")
	meshCmd.Flags().IntP("limits", "l", params.Default().Limits, "half-extent of the sampled cube")
	meshCmd.Flags().StringP("algorithm", "a", params.MarchingCubes.String(), "marching_cubes or dual_contour")
}
