package axml

import (
	"errors"
	"fmt"
)

const manifestName = "AndroidManifest.xml"

// Compiled manifests are small; anything bigger than this is not one.
const maxManifestSize = 16 << 20

// DecodeApk extracts AndroidManifest.xml from the APK at path and
// decodes it.
func DecodeApk(path string) (*Document, error) {
	zr, err := OpenZip(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return DecodeApkWithZip(zr)
}

// DecodeApkWithZip is DecodeApk over an already opened archive. The
// archive is not closed. Broken APKs can carry several manifest entries;
// each one is tried until one decodes.
func DecodeApkWithZip(zr *ZipReader) (*Document, error) {
	variants, err := zr.readVariants(manifestName, maxManifestSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", manifestName, err)
	}

	var lastErr error
	for _, data := range variants {
		doc, err := Decode(data)
		if err == nil {
			return doc, nil
		}
		if errors.Is(err, ErrPlainTextManifest) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to decode %s: %w", manifestName, lastErr)
}
