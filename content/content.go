// Package content embeds the bundled world, door and script data so the
// binaries run without a content directory on disk.
package content

import "embed"

// FS holds world/, doors/ and scripts/.
//
//go:embed world doors scripts
var FS embed.FS
