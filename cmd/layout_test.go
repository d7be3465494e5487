package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRunLayout_PrintsDevicesInsideCanvas(t *testing.T) {
	// GIVEN the LAN scenario on the default 800x600 canvas
	path := writeFile(t, "lan.yaml", lanScenario)
	var out bytes.Buffer

	// WHEN laid out
	require.NoError(t, runLayout(&out, path, layoutFlags{}))

	// THEN every device is listed in scenario order, inside the padded canvas
	var got layoutOutput
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	require.Len(t, got.Devices, 4)
	for i, id := range []string{"C1", "S1", "C2", "C3"} {
		d := got.Devices[i]
		assert.Equal(t, id, d.ID)
		assert.GreaterOrEqual(t, d.X, 50.0)
		assert.LessOrEqual(t, d.X, 800.0-128-50)
		assert.GreaterOrEqual(t, d.Y, 50.0)
		assert.LessOrEqual(t, d.Y, 600.0-128-50)
	}
	assert.Equal(t, "switch", got.Devices[1].Type)
}

func TestRunLayout_Deterministic(t *testing.T) {
	path := writeFile(t, "lan.yaml", lanScenario)
	var a, b bytes.Buffer

	require.NoError(t, runLayout(&a, path, layoutFlags{}))
	require.NoError(t, runLayout(&b, path, layoutFlags{}))

	assert.Equal(t, a.String(), b.String())
}

func TestRunLayout_FlagOverrides(t *testing.T) {
	path := writeFile(t, "lan.yaml", lanScenario)
	width, height := 2000.0, 1500.0
	iterations := 5

	var out bytes.Buffer
	require.NoError(t, runLayout(&out, path, layoutFlags{width: &width, height: &height, iterations: &iterations}))

	var got layoutOutput
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	for _, d := range got.Devices {
		assert.LessOrEqual(t, d.X, width-128-50)
		assert.LessOrEqual(t, d.Y, height-128-50)
	}
}

func TestRunLayout_InvalidFlags(t *testing.T) {
	path := writeFile(t, "lan.yaml", lanScenario)
	zero := 0.0
	negative := -1

	err := runLayout(&bytes.Buffer{}, path, layoutFlags{width: &zero})
	assert.ErrorContains(t, err, "canvas must be positive")

	err = runLayout(&bytes.Buffer{}, path, layoutFlags{iterations: &negative})
	assert.ErrorContains(t, err, "iterations must be non-negative")
}
