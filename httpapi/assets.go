package httpapi

import (
	"embed"
	"io/fs"
)

//go:embed assets/index.html assets/app.js assets/style.css
var embeddedAssets embed.FS

// assetsFS serves the web terminal with the assets/ prefix stripped.
var assetsFS = mustSub(embeddedAssets, "assets")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
