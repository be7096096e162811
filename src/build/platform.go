package build

import (
	"fmt"
	"sort"
	"strings"
)

// Platform is an SDK a target can be built for.
type Platform string

const (
	PlatformMacOS            Platform = "macos"
	PlatformIOS              Platform = "ios"
	PlatformIOSSimulator     Platform = "ios-simulator"
	PlatformTVOS             Platform = "tvos"
	PlatformTVOSSimulator    Platform = "tvos-simulator"
	PlatformWatchOS          Platform = "watchos"
	PlatformWatchOSSimulator Platform = "watchos-simulator"
	PlatformVisionOS         Platform = "visionos"
	PlatformVisionSimulator  Platform = "visionos-simulator"
)

// sdkSettings maps each platform to its SDKROOT setting value.
var sdkSettings = map[Platform]string{
	PlatformMacOS:            "macosx",
	PlatformIOS:              "iphoneos",
	PlatformIOSSimulator:     "iphonesimulator",
	PlatformTVOS:             "appletvos",
	PlatformTVOSSimulator:    "appletvsimulator",
	PlatformWatchOS:          "watchos",
	PlatformWatchOSSimulator: "watchsimulator",
	PlatformVisionOS:         "xros",
	PlatformVisionSimulator:  "xrsimulator",
}

// minimumDeployment is written as MinimumOSVersion into bundle Info.plists.
var minimumDeployment = map[Platform]string{
	PlatformMacOS:            "10.13",
	PlatformIOS:              "12.0",
	PlatformIOSSimulator:     "12.0",
	PlatformTVOS:             "12.0",
	PlatformTVOSSimulator:    "12.0",
	PlatformWatchOS:          "4.0",
	PlatformWatchOSSimulator: "4.0",
	PlatformVisionOS:         "1.0",
	PlatformVisionSimulator:  "1.0",
}

// AllPlatforms returns every known platform, sorted.
func AllPlatforms() []Platform {
	out := make([]Platform, 0, len(sdkSettings))
	for p := range sdkSettings {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParsePlatform accepts a platform name ("ios-simulator") or an SDK setting
// value ("iphonesimulator").
func ParsePlatform(s string) (Platform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := sdkSettings[Platform(s)]; ok {
		return Platform(s), nil
	}
	for p, sdk := range sdkSettings {
		if sdk == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// SettingValue is the SDK name used in build settings and path components.
func (p Platform) SettingValue() string { return sdkSettings[p] }

// IsHost reports whether p is the machine the build runs on. Host products
// live in a directory named after the bare configuration.
func (p Platform) IsHost() bool { return p == PlatformMacOS }

// IsSimulator reports whether p is a simulator SDK.
func (p Platform) IsSimulator() bool { return strings.HasSuffix(string(p), "-simulator") }

// VersionedBundle reports whether frameworks for p use the deep
// Versions/A layout.
func (p Platform) VersionedBundle() bool { return p == PlatformMacOS }

// Configuration is a build configuration.
type Configuration string

const (
	ConfigurationDebug   Configuration = "debug"
	ConfigurationRelease Configuration = "release"
)

// ParseConfiguration parses "debug" or "release" (case-insensitive).
func ParseConfiguration(s string) (Configuration, error) {
	switch c := Configuration(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfigurationDebug, ConfigurationRelease:
		return c, nil
	}
	return "", fmt.Errorf("unknown configuration %q", s)
}

// SettingValue is the configuration name the build engine expects.
func (c Configuration) SettingValue() string {
	switch c {
	case ConfigurationDebug:
		return "Debug"
	default:
		return "Release"
	}
}

// ProductDirName returns the products directory name for (c, p):
// "Release" for the host platform, "Release-iphoneos" otherwise.
func ProductDirName(c Configuration, p Platform) string {
	if p.IsHost() {
		return c.SettingValue()
	}
	return c.SettingValue() + "-" + p.SettingValue()
}
