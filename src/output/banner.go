package output

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// BannerInfo holds the identity fields displayed alongside the logo.
type BannerInfo struct {
	Version string
	SHA     string
	Date    string
}

var logo = []string{
	`__  _____ ___  ___  ___  ___ ___ `,
	`\ \/ / __| __|/ _ \| _ \/ __| __|`,
	` >  < (__| _|| (_) |   / (_ | _| `,
	`/_/\_\___|_|  \___/|_|_\\___|___|`,
}

// Banner prints the xcforge logo with version info beside it.
func Banner(w io.Writer, info BannerInfo, color bool) {
	art := logo
	if color {
		art = make([]string, len(logo))
		for i, l := range logo {
			art[i] = colorize(l, colorCyan, true)
		}
	}
	printBanner(w, art, buildIdentityText(info, color))
}

// buildIdentityText assembles the identity lines shown beside the logo.
func buildIdentityText(info BannerInfo, color bool) []string {
	var items []string
	if info.Version != "" {
		items = append(items, colorize(info.Version, colorBold, color))
	}
	if info.SHA != "" {
		items = append(items, Dimmed(info.SHA, color))
	}
	if info.Date != "" {
		items = append(items, Dimmed(info.Date, color))
	}
	return items
}

// printBanner composites art lines with identity text, vertically centered.
func printBanner(w io.Writer, artLines, textItems []string) {
	textLines := make([]string, len(artLines))
	startLine := (len(artLines) - len(textItems)) / 2
	for i, item := range textItems {
		idx := startLine + i
		if idx >= 0 && idx < len(textLines) {
			textLines[idx] = item
		}
	}

	fmt.Fprintln(w)
	for i, artLine := range artLines {
		if textLines[i] != "" {
			fmt.Fprintf(w, "    %s   %s\n", artLine, textLines[i])
		} else {
			fmt.Fprintln(w, strings.TrimRight("    "+artLine, " "))
		}
	}
	fmt.Fprintln(w)
}

// NewBannerInfo creates a BannerInfo with today's date.
func NewBannerInfo(version, sha string) BannerInfo {
	return BannerInfo{
		Version: version,
		SHA:     sha,
		Date:    time.Now().UTC().Format("2006-01-02"),
	}
}
