package manifest

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"locimages/pkg/loc"
)

const (
	// MaxPathStemLength caps the filename stem written into out= lines.
	// Filesystem limits vary; 200 stays under all of them with room for
	// the suffix.
	MaxPathStemLength = 200
	// MaxDirNameLength caps a collection directory name
	MaxDirNameLength = 200
)

// blockedFileNameChars are the characters rejected in filenames by at least
// one of linux, windows, or macos
const blockedFileNameChars = `<>:"/\|?*`

// Options controls manifest entry formatting
type Options struct {
	// AriaFormat emits aria2c input-file option lines after each URL
	AriaFormat bool
	// GroupByCollection adds a dir= option naming the item's source
	// collection under RootDir
	GroupByCollection bool
	// RootDir is the root of image downloads
	RootDir string
}

// SanitizeFileName returns a file name that should be suitable on most
// OSes, with known bad characters filtered out
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		if c < 32 || strings.ContainsRune(blockedFileNameChars, c) {
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// CreateFileName builds the out= filename for a result: the item's ID
// number and sanitized title, capped in length, with the image URL's
// suffix.
//
// Deriving the suffix from the URL path is a little brittle; a HEAD request
// for the Content-Type would be more precise but costs a request per item
// against a budgeted API. The image URLs carry their suffixes in practice.
func CreateFileName(result *loc.Result, imageURL string) string {
	stem := fmt.Sprintf("%s - %s", idNumber(result.URL), SanitizeFileName(result.Title))
	if runes := []rune(stem); len(runes) > MaxPathStemLength {
		stem = string(runes[:MaxPathStemLength])
	}

	return stem + suffixOf(imageURL)
}

// CollectionDir returns the dir= path for a result, rootDir itself when the
// item carries no source collection
func CollectionDir(result *loc.Result, rootDir string) string {
	collection := result.Item.SourceCollection
	if collection == "" {
		return rootDir
	}

	name := SanitizeFileName(collection)
	if runes := []rune(name); len(runes) > MaxDirNameLength {
		name = string(runes[:MaxDirNameLength])
	}

	return filepath.Join(rootDir, name)
}

// FormatEntry renders one accepted result as manifest lines. In aria format
// that is a source comment, the image URL, and the option lines aria2c
// reads from its input file; otherwise just the bare URL.
func FormatEntry(result *loc.Result, imageURL string, opts Options) []string {
	if !opts.AriaFormat {
		return []string{imageURL}
	}

	lines := []string{
		// a note for humans about where the file came from
		fmt.Sprintf("# %s", result.ID),
		imageURL,
		optionLine("out", CreateFileName(result, imageURL)),
	}

	if opts.GroupByCollection {
		lines = append(lines, optionLine("dir", CollectionDir(result, opts.RootDir)))
	}

	// Forbid aria2 from writing foo.1.jpg next to an existing foo.jpg;
	// the URL is simply skipped instead, which is what a resumed run
	// wants.
	lines = append(lines, optionLine("auto-file-renaming", "false"))

	// trailing blank line keeps entries readable
	lines = append(lines, "")

	return lines
}

func optionLine(key, value string) string {
	return fmt.Sprintf("  %s=%s", key, value)
}

// idNumber extracts the trailing ID segment of an item URL
func idNumber(itemURL string) string {
	u, err := url.Parse(itemURL)
	if err != nil || u.Path == "" {
		return itemURL
	}
	return path.Base(u.Path)
}

// suffixOf returns the file extension of an image URL's path
func suffixOf(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}
