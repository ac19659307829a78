// Package manifest turns crawled results into an aria2c input-file
// manifest: inclusion filtering, best-image selection, filename and
// directory shaping, and de-duplicated output. aria2c consumes the manifest
// with its -i/--input-file option; this tool never downloads images itself.
package manifest
