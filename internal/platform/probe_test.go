package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNvidiaSMI(t *testing.T) {
	out := "NVIDIA GeForce RTX 3080, 535.104.05, 10240, 47\nTesla T4, 535.104.05, 15360, [N/A]\n\n"
	devices := parseNvidiaSMI(out)
	require.Len(t, devices, 2)

	assert.Equal(t, "NVIDIA GeForce RTX 3080", devices[0].Name)
	assert.Equal(t, "NVIDIA", devices[0].Vendor)
	assert.Equal(t, "535.104.05", devices[0].DriverVersion)
	assert.Equal(t, uint64(10240)*1024*1024, devices[0].MemoryBytes)
	require.NotNil(t, devices[0].TemperatureC)
	assert.Equal(t, 47.0, *devices[0].TemperatureC)

	assert.Nil(t, devices[1].TemperatureC)
}

func TestParseLspci(t *testing.T) {
	out := `00:00.0 "Host bridge" "Intel Corporation" "Xeon E3-1200 v6/7th Gen Core Processor Host Bridge/DRAM Registers" -r08 "Lenovo" "Device 2258"
00:02.0 "VGA compatible controller" "Intel Corporation" "UHD Graphics 620" -r07 "Lenovo" "Device 2258"
01:00.0 "3D controller" "NVIDIA Corporation" "GP108M [GeForce MX150]" -ra1 "Lenovo" "Device 2258"
`
	devices := parseLspci(out)
	require.Len(t, devices, 2)
	assert.Equal(t, "UHD Graphics 620", devices[0].Name)
	assert.Equal(t, "Intel Corporation", devices[0].Vendor)
	assert.Equal(t, "GP108M [GeForce MX150]", devices[1].Name)
}

func TestSplitQuoted(t *testing.T) {
	assert.Equal(t, []string{"00:02.0", "VGA compatible controller", "Intel", "-r07"},
		splitQuoted(`00:02.0 "VGA compatible controller" "Intel" -r07`))
	assert.Empty(t, splitQuoted("   "))
}

func TestParseVideoControllers(t *testing.T) {
	out := "Intel(R) UHD Graphics 630|Intel Corporation|27.20.100.8681|1073741824\r\nMicrosoft Basic Display Adapter|||\r\n"
	devices := parseVideoControllers(out)
	require.Len(t, devices, 2)
	assert.Equal(t, uint64(1073741824), devices[0].MemoryBytes)
	assert.Equal(t, "Microsoft Basic Display Adapter", devices[1].Name)
	assert.Zero(t, devices[1].MemoryBytes)
}

func TestParseSystemProfiler(t *testing.T) {
	data := []byte(`{"SPDisplaysDataType":[{"sppci_model":"Apple M1 Pro","spdisplays_vendor":"sppci_vendor_Apple"},{"sppci_model":"AMD Radeon Pro 5500M","spdisplays_vendor":"sppci_vendor_AMD","spdisplays_vram":"8 GB"}]}`)
	devices, err := parseSystemProfiler(data)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Apple", devices[0].Vendor)
	assert.Equal(t, uint64(8)<<30, devices[1].MemoryBytes)
}

func TestParseSize(t *testing.T) {
	tests := map[string]uint64{
		"1536 MB": 1536 << 20,
		"8 GB":    8 << 30,
		"shared":  0,
		"12 TB":   0,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseSize(in), in)
	}
}
