package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	meshCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		meshCmd.SetOut(nil)
		meshCmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "meshd version dev\n", out)
}

func TestMeshCommand(t *testing.T) {
	t.Setenv("ISOVIZ_LOG_LEVEL", "error")
	out, err := execute(t, "mesh", "--example", "Sphere", "--limits", "8")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "o "))
	assert.Contains(t, out, "\nv ")
	assert.Contains(t, out, "\nf ")
}

func TestMeshCommandRejects(t *testing.T) {
	t.Setenv("ISOVIZ_LOG_LEVEL", "error")
	_, err := execute(t, "mesh", "--formula", "bad$$expr")
	require.Error(t, err)
	assert.Equal(t, "Invalid characters used", err.Error())
}

func TestMeshParams(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("formula", "x", "")
	cmd.Flags().String("example", "Torus", "")
	cmd.Flags().Int("limits", 7, "")
	cmd.Flags().String("algorithm", "dual_contour", "")

	p, err := meshParams(cmd)
	require.NoError(t, err)
	torus, _ := params.LookupExample("Torus")
	assert.Equal(t, torus.Formula, p.Formula)
	assert.Equal(t, 7, p.Limits)
	assert.Equal(t, params.DualContour, p.Algorithm)

	require.NoError(t, cmd.Flags().Set("formula", "x+y"))
	p, err = meshParams(cmd)
	require.NoError(t, err)
	assert.Equal(t, "x+y", p.Formula)

	require.NoError(t, cmd.Flags().Set("algorithm", "octree"))
	_, err = meshParams(cmd)
	assert.Error(t, err)
}
