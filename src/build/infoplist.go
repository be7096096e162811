package build

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// platformNames are the CFBundleSupportedPlatforms values.
var platformNames = map[Platform]string{
	PlatformMacOS:            "MacOSX",
	PlatformIOS:              "iPhoneOS",
	PlatformIOSSimulator:     "iPhoneSimulator",
	PlatformTVOS:             "AppleTVOS",
	PlatformTVOSSimulator:    "AppleTVSimulator",
	PlatformWatchOS:          "WatchOS",
	PlatformWatchOSSimulator: "WatchSimulator",
	PlatformVisionOS:         "XROS",
	PlatformVisionSimulator:  "XRSimulator",
}

const defaultBundleVersion = "1.0.0"

// InfoPlist renders the framework's Info.plist. Keys are emitted in a fixed
// order so repeated assembly is byte-identical.
func InfoPlist(c FrameworkComponents) []byte {
	version := c.Version
	if version == "" {
		version = defaultBundleVersion
	}
	id := c.BundleIdentifier
	if id == "" {
		id = "xcforge." + c.Name
	}

	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n")
	b.WriteString("<plist version=\"1.0\">\n<dict>\n")
	entry := func(key, value string) {
		fmt.Fprintf(&b, "\t<key>%s</key>\n\t<string>%s</string>\n", key, escape(value))
	}
	entry("CFBundleDevelopmentRegion", "en")
	entry("CFBundleExecutable", c.Name)
	entry("CFBundleIdentifier", id)
	entry("CFBundleInfoDictionaryVersion", "6.0")
	entry("CFBundleName", c.Name)
	entry("CFBundlePackageType", "FMWK")
	entry("CFBundleShortVersionString", version)
	b.WriteString("\t<key>CFBundleSupportedPlatforms</key>\n\t<array>\n")
	fmt.Fprintf(&b, "\t\t<string>%s</string>\n", platformNames[c.Platform])
	b.WriteString("\t</array>\n")
	entry("CFBundleVersion", version)
	if min := minimumDeployment[c.Platform]; min != "" {
		key := "MinimumOSVersion"
		if c.Platform == PlatformMacOS {
			key = "LSMinimumSystemVersion"
		}
		entry(key, min)
	}
	b.WriteString("</dict>\n</plist>\n")
	return b.Bytes()
}

func escape(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
