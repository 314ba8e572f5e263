package domain

import (
	"fmt"
)

const (
	InfoKey  = "Info"
	ErrorKey = "Error"
)

// ImageRecord identifies one source image found during folder enumeration.
type ImageRecord struct {
	Name string
	Path string
}

// MetadataMap maps EXIF tag names to their stringified values.
type MetadataMap map[string]string

// MetadataResult is the outcome of one extraction strategy: tags, an informational
// "nothing found" note, or a failure.
type MetadataResult struct {
	Source string
	Tags   MetadataMap
	Info   string
	Err    *Error
}

func NewMetadata(source string, tags MetadataMap) MetadataResult {
	return MetadataResult{Source: source, Tags: tags}
}

func NoMetadata(source, info string) MetadataResult {
	return MetadataResult{Source: source, Info: info}
}

func MetadataError(source string, err *Error) MetadataResult {
	return MetadataResult{Source: source, Err: err}
}

func (r MetadataResult) Failed() bool {
	return r.Err != nil
}

// Map renders the result in its wire form, with sentinel keys for the non-tag cases.
func (r MetadataResult) Map() MetadataMap {
	switch {
	case r.Err != nil:
		return MetadataMap{ErrorKey: fmt.Sprintf("Error reading image with %s: %v", r.Source, r.Err)}
	case len(r.Tags) == 0:
		info := r.Info
		if info == "" {
			info = fmt.Sprintf("No EXIF metadata found using %s.", r.Source)
		}
		return MetadataMap{InfoKey: info}
	default:
		out := make(MetadataMap, len(r.Tags))
		for k, v := range r.Tags {
			out[k] = v
		}
		return out
	}
}

// ELAResult is either the path of a written artifact or the reason none was produced.
type ELAResult struct {
	Source string
	Path   string
	Err    *Error
}

func ArtifactPath(source, path string) ELAResult {
	return ELAResult{Source: source, Path: path}
}

func ArtifactError(source string, err *Error) ELAResult {
	return ELAResult{Source: source, Err: err}
}

func (r ELAResult) Failed() bool {
	return r.Err != nil
}

func (r ELAResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("Error during ELA for %s: %v", r.Source, r.Err)
	}
	return r.Path
}

// FolderResult is the per-image record produced by the folder processor.
type FolderResult struct {
	Image    ImageRecord
	Embedded MetadataResult
	Scanned  MetadataResult
	ELA      ELAResult

	// ObjectKey is set when the artifact was mirrored to object storage.
	ObjectKey string
}

// ProcessFolderRequest requires the folder_path key but accepts an empty value, which
// resolves to a missing folder like any other nonexistent path.
type ProcessFolderRequest struct {
	FolderPath *string `json:"folder_path" binding:"required"`
}

type ImageResult struct {
	Image            string            `json:"image"`
	MetadataPIL      MetadataMap       `json:"metadata_pil"`
	MetadataExifread MetadataMap       `json:"metadata_exifread"`
	ELAImagePath     string            `json:"ela_image_path"`
	ELAObjectKey     string            `json:"ela_object_key,omitempty"`
	Errors           map[string]string `json:"errors,omitempty"`
}

type ProcessFolderResponse struct {
	Results []ImageResult `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ToWire converts a typed result into the response record.
func (r FolderResult) ToWire() ImageResult {
	out := ImageResult{
		Image:            r.Image.Name,
		MetadataPIL:      r.Embedded.Map(),
		MetadataExifread: r.Scanned.Map(),
		ELAImagePath:     r.ELA.String(),
		ELAObjectKey:     r.ObjectKey,
	}

	errs := map[string]string{}
	if r.Embedded.Failed() {
		errs["metadata_pil"] = string(r.Embedded.Err.Kind)
	}
	if r.Scanned.Failed() {
		errs["metadata_exifread"] = string(r.Scanned.Err.Kind)
	}
	if r.ELA.Failed() {
		errs["ela_image_path"] = string(r.ELA.Err.Kind)
	}
	if len(errs) > 0 {
		out.Errors = errs
	}

	return out
}

// NewProcessFolderResponse never renders a nil slice, so an empty folder yields "results": [].
func NewProcessFolderResponse(results []FolderResult) ProcessFolderResponse {
	wire := make([]ImageResult, 0, len(results))
	for _, r := range results {
		wire = append(wire, r.ToWire())
	}
	return ProcessFolderResponse{Results: wire}
}
