package image

import (
	"bytes"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"

	"github.com/mediamorph/mediamorph/internal/metadata"
)

// injectExif writes the device tag subset into the IFD0 block of an
// already-encoded JPEG, returning the rewritten bytes.
func injectExif(jpegData []byte, tags metadata.ExifTags) ([]byte, error) {
	jmp := jpegstructure.NewJpegMediaParser()
	intfc, err := jmp.ParseBytes(jpegData)
	if err != nil {
		return nil, err
	}
	sl := intfc.(*jpegstructure.SegmentList)

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		// Freshly encoded JPEGs carry no EXIF segment yet; start from
		// an empty builder.
		im, err := exifcommon.NewIfdMappingWithStandard()
		if err != nil {
			return nil, err
		}
		ti := exif.NewTagIndex()
		rootIb = exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	}

	ifd0, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD0")
	if err != nil {
		return nil, err
	}
	if err := ifd0.SetStandardWithName("Make", tags.Make); err != nil {
		return nil, err
	}
	if err := ifd0.SetStandardWithName("Model", tags.Model); err != nil {
		return nil, err
	}
	if err := ifd0.SetStandardWithName("Software", tags.Software); err != nil {
		return nil, err
	}

	if err := sl.SetExif(rootIb); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := sl.Write(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
