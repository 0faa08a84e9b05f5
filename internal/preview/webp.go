package preview

import (
	"image"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/pkg/errors"
)

// WriteWebP encodes img losslessly to path, creating parent directories.
func WriteWebP(path string, img image.Image) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "preview: create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "preview: create file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "preview: close file")
		}
	}()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return errors.Wrapf(err, "preview: encode %s", path)
	}
	return nil
}
