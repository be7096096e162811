package build

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{in: "ios", want: PlatformIOS},
		{in: "iOS-Simulator", want: PlatformIOSSimulator},
		{in: "iphonesimulator", want: PlatformIOSSimulator},
		{in: "macosx", want: PlatformMacOS},
		{in: " xros ", want: PlatformVisionOS},
		{in: "android", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlatform(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAllPlatformsRoundTripThroughSettingValue(t *testing.T) {
	all := AllPlatforms()
	require.Len(t, all, 9)
	for _, p := range all {
		got, err := ParsePlatform(p.SettingValue())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}
}

func TestProductDirName(t *testing.T) {
	require.Equal(t, "Release", ProductDirName(ConfigurationRelease, PlatformMacOS))
	require.Equal(t, "Debug", ProductDirName(ConfigurationDebug, PlatformMacOS))
	require.Equal(t, "Release-iphoneos", ProductDirName(ConfigurationRelease, PlatformIOS))
	require.Equal(t, "Debug-xrsimulator", ProductDirName(ConfigurationDebug, PlatformVisionSimulator))
}

func TestProductDirNameProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	platforms := make([]interface{}, 0, len(sdkSettings))
	for _, p := range AllPlatforms() {
		platforms = append(platforms, p)
	}

	properties.Property("host uses the bare configuration, others append the sdk", prop.ForAll(
		func(c Configuration, p Platform) bool {
			got := ProductDirName(c, p)
			if p.IsHost() {
				return got == c.SettingValue()
			}
			return got == c.SettingValue()+"-"+p.SettingValue()
		},
		gen.OneConstOf(ConfigurationDebug, ConfigurationRelease),
		gen.OneConstOf(platforms...),
	))

	properties.TestingRun(t)
}

func TestParseConfiguration(t *testing.T) {
	c, err := ParseConfiguration("Debug")
	require.NoError(t, err)
	require.Equal(t, ConfigurationDebug, c)
	require.Equal(t, "Debug", c.SettingValue())

	_, err = ParseConfiguration("profile")
	require.Error(t, err)
}
