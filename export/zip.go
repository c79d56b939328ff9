package export

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
)

// sidecar extensions worth shipping in the archive
var archiveExts = map[string]bool{
	".shp":     true,
	".shx":     true,
	".dbf":     true,
	".prj":     true,
	".cpg":     true,
	".geojson": true,
}

// Archive packs the dataset files staged under dir into a single zip at
// zipPath. Entries are flattened to their base names, the staging
// layout is nobody's business.
func Archive(dir string, zipPath string) error {
	zf, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer zf.Close()

	zw := zip.NewWriter(zf)

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !archiveExts[filepath.Ext(path)] {
			return nil
		}

		entry, err := zw.Create(filepath.Base(path))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(entry, src)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}

	return zw.Close()
}
