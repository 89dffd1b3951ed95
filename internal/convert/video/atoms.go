package video

import (
	mp4tag "github.com/Sorrow446/go-mp4tag"

	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/internal/metadata"
)

// AtomTagger rewrites the ilst atoms of an MP4/MOV file in place after
// the transcode, covering tags ffmpeg drops or renames.
type AtomTagger interface {
	Tag(path string, atoms metadata.Tags) error
}

// MP4Tagger writes atoms with go-mp4tag. Standard ilst atoms map to
// the library's typed fields; Apple device atoms it has no field for
// go through custom freeform atoms.
type MP4Tagger struct{}

// customNameByAtom names the freeform atoms used for keys go-mp4tag
// has no typed field for.
var customNameByAtom = map[string]string{
	"\xa9mak": "MAKE",
	"\xa9mod": "MODEL",
	"\xa9swr": "SOFTWARE",
	"\xa9enc": "ENCODER",
	"\xa9day": "DATE",
	"\xa9too": "TOOL",
	"\xa9gen": "GENERATOR",
	"keyw":    "KEYWORDS",
	"hndl":    "HANDLER",
}

// Tag opens the file and writes the atom set.
func (MP4Tagger) Tag(path string, atoms metadata.Tags) error {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return convert.ErrExternalTool("open mp4 container", err)
	}
	defer mp4.Close()

	tags := &mp4tag.MP4Tags{Custom: map[string]string{}}
	for key, value := range atoms {
		switch key {
		case "\xa9nam":
			tags.Title = value
		case "\xa9ART":
			tags.Artist = value
		case "\xa9alb":
			tags.Album = value
		case "\xa9cmt":
			tags.Comment = value
		case "\xa9wrt":
			tags.Composer = value
		case "cprt":
			tags.Copyright = value
		case "desc":
			tags.Description = value
		default:
			if name, ok := customNameByAtom[key]; ok {
				tags.Custom[name] = value
			}
		}
	}

	if err := mp4.Write(tags, nil); err != nil {
		return convert.ErrExternalTool("write mp4 atoms", err)
	}
	return nil
}
