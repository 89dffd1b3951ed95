package metadata

// atomKeyByField maps each logical tag name to its MP4 ilst atom key.
// Only fields present here are carried into the atom-level pass; the
// rest stay container-level only.
var atomKeyByField = map[string]string{
	"make":         "\xa9mak",
	"model":        "\xa9mod",
	"software":     "\xa9swr",
	"artist":       "\xa9ART",
	"comment":      "\xa9cmt",
	"encoder":      "\xa9enc",
	"copyright":    "cprt",
	"album":        "\xa9alb",
	"title":        "\xa9nam",
	"description":  "desc",
	"composer":     "\xa9wrt",
	"date":         "\xa9day",
	"keywords":     "keyw",
	"handler_name": "hndl",
}

// toolByPreset holds the fixed ©too/©gen pair written per preset on
// top of the mapped fields.
var toolByPreset = map[Preset][2]string{
	PresetIPhone:  {"Apple Camera", "Original"},
	PresetAndroid: {"Samsung Camera", "Original"},
	PresetCapCut:  {"CapCut 9.9.0", "CapCut Export"},
}

// Atoms converts a container-level tag set into atom key/value pairs
// for the MP4/MOV post-transcode pass, including the preset's fixed
// tool and genre tags.
func Atoms(p Preset, tags Tags) Tags {
	atoms := make(Tags)
	for field, key := range atomKeyByField {
		if v, ok := tags[field]; ok {
			atoms[key] = v
		}
	}
	if fixed, ok := toolByPreset[p]; ok {
		atoms["\xa9too"] = fixed[0]
		atoms["\xa9gen"] = fixed[1]
	}
	return atoms
}
