// Package metadata defines the device metadata presets and the tag
// sets they expand to for each converter family: EXIF tags for JPEG
// output, container-level tags for the transcoder, and MP4 atom keys
// for the post-transcode tagging pass.
package metadata

import "time"

// Preset names a device/app identity to emulate.
type Preset string

const (
	PresetIPhone  Preset = "iPhone"
	PresetAndroid Preset = "Android"
	PresetCapCut  Preset = "CapCut"
)

// Presets lists all presets in keyboard order.
var Presets = []Preset{PresetIPhone, PresetAndroid, PresetCapCut}

// Parse maps a free-text token to a preset.
func Parse(s string) (Preset, bool) {
	switch Preset(s) {
	case PresetIPhone, PresetAndroid, PresetCapCut:
		return Preset(s), true
	}
	return "", false
}

// Tags is a set of logical tag names mapped to values.
type Tags map[string]string

// ExifTags holds the reduced tag subset injected into JPEG output.
// Only device presets carry one; CapCut is an editor identity and has
// no camera EXIF.
type ExifTags struct {
	Make     string
	Model    string
	Software string
}

var exifByPreset = map[Preset]ExifTags{
	PresetIPhone:  {Make: "Apple", Model: "iPhone 15 Pro Max", Software: "iOS 17.4"},
	PresetAndroid: {Make: "Samsung", Model: "Galaxy S24 Ultra", Software: "Android 14"},
}

// Exif returns the EXIF tag subset for a preset, if it has one.
func Exif(p Preset) (ExifTags, bool) {
	t, ok := exifByPreset[p]
	return t, ok
}

// videoByPreset holds the full container-level tag sets. The
// creation_time and date entries here are placeholders; Video stamps
// them with the conversion time.
var videoByPreset = map[Preset]Tags{
	PresetIPhone: {
		"make":                "Apple",
		"model":               "iPhone 15 Pro Max",
		"software":            "iOS 17.4",
		"encoder":             "com.apple.videotoolbox.videoencoder",
		"copyright":           "© Apple Inc.",
		"device_id":           "iPhone15,2",
		"device_manufacturer": "Apple",
		"device_model":        "iPhone 15 Pro Max",
		"os_version":          "iOS 17.4",
		"location":            "0+0/",
		"description":         "Video recorded with iPhone 15 Pro Max",
		"artist":              "iPhone User",
		"album":               "iPhone Camera Roll",
	},
	PresetAndroid: {
		"make":                "Samsung",
		"model":               "Galaxy S24 Ultra",
		"software":            "Android 14",
		"encoder":             "com.samsung.videoeditor",
		"copyright":           "© Samsung Electronics",
		"device_id":           "SM-S928B",
		"device_manufacturer": "Samsung",
		"device_model":        "Galaxy S24 Ultra",
		"os_version":          "Android 14 OneUI 6.1",
		"location":            "0+0/",
		"description":         "Video recorded with Samsung Galaxy S24 Ultra",
		"artist":              "Samsung User",
		"album":               "Samsung Camera",
		"handler_name":        "Samsung Video Media Handler",
		"compatible_brands":   "isomiso2mp41",
		"major_brand":         "isom",
		"minor_version":       "512",
	},
	PresetCapCut: {
		"software":          "CapCut 9.9.0",
		"artist":            "Edited with CapCut",
		"comment":           "Created with CapCut",
		"encoder":           "CapCut Video Editor",
		"copyright":         "© ByteDance Inc.",
		"composer":          "CapCut Editor",
		"handler_name":      "CapCut Media Handler",
		"album":             "CapCut Projects",
		"description":       "Video edited with CapCut 9.9.0",
		"keywords":          "capcut,video,edit,tiktok",
		"title":             "CapCut Video",
		"compatible_brands": "isomiso2mp41",
		"major_brand":       "isom",
		"minor_version":     "512",
	},
}

// Video returns the container-level tag set for a preset with the
// timestamp fields stamped from now. Timestamps always reflect
// conversion time, never a value baked into the preset.
func Video(p Preset, now time.Time) (Tags, bool) {
	base, ok := videoByPreset[p]
	if !ok {
		return nil, false
	}
	tags := make(Tags, len(base)+2)
	for k, v := range base {
		tags[k] = v
	}
	tags["creation_time"] = now.Format("2006-01-02 15:04:05")
	tags["date"] = now.Format("2006:01:02 15:04:05")
	return tags, true
}

// DeviceLine returns the human-readable device/app summary lines shown
// to the user after a conversion with this preset.
func DeviceLine(p Preset, tags Tags) []string {
	switch p {
	case PresetIPhone:
		return []string{
			"Device: " + tags["make"] + " " + tags["model"],
			"iOS version: " + tags["os_version"],
			"Encoder: " + tags["encoder"],
		}
	case PresetAndroid:
		return []string{
			"Device: " + tags["make"] + " " + tags["model"],
			"Android version: " + tags["os_version"],
			"Encoder: " + tags["encoder"],
		}
	case PresetCapCut:
		return []string{
			"Software: " + tags["software"],
			"Version: 9.9.0",
			"Encoder: " + tags["encoder"],
		}
	}
	return nil
}
