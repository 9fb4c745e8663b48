// Package assets embeds the static files served to the viewer.
package assets

import "embed"

// BootstrapMesh is the object shown before the first regeneration.
const BootstrapMesh = "sphere.obj"

// FS holds the static meshes.
//
//go:embed *.obj
var FS embed.FS
