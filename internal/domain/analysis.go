package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Labels produced by analysis clients. Sentinel labels never come from a model.
const (
	LabelInconclusive         = "Analyzing..."
	LabelAnalysisError        = "Analysis Error"
	LabelNoMedia              = "No Media Uploaded"
	LabelAuthenticImage       = "Authentic Image"
	LabelManipulatedImage     = "Manipulated Image"
	LabelManipulatedImageHigh = "Manipulated Image (High Confidence)"
	LabelAuthenticVideo       = "Authentic Video"
	LabelManipulatedVideo     = "Manipulated Video"
)

// Modality names the content type an analysis backend scores.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
)

// DetailsKind tags the concrete Details variant.
type DetailsKind string

const (
	DetailsText  DetailsKind = "text"
	DetailsImage DetailsKind = "image"
	DetailsVideo DetailsKind = "video"
	DetailsError DetailsKind = "error"
)

// Details is the modality-specific payload of an AnalysisResult.
// A nil Details means the result carries no details at all.
type Details interface {
	Kind() DetailsKind
}

// TextDetails is whatever the text service returned under "details"; it is opaque here.
type TextDetails map[string]any

// ImageDetails holds the raw sub-scores of the image model, both in [0,1].
type ImageDetails struct {
	FakeScore float64 `json:"fakeScore"`
	RealScore float64 `json:"realScore"`
}

// VideoDetails holds the video model's per-frame breakdown and timing.
type VideoDetails struct {
	FrameAnalysis map[string]any `json:"frameAnalysis"`
	DetectionTime float64        `json:"detectionTime"`
}

// ErrorDetails carries the failure message of a backend call.
type ErrorDetails struct {
	Message string `json:"error"`
}

func (TextDetails) Kind() DetailsKind  { return DetailsText }
func (ImageDetails) Kind() DetailsKind { return DetailsImage }
func (VideoDetails) Kind() DetailsKind { return DetailsVideo }
func (ErrorDetails) Kind() DetailsKind { return DetailsError }

// AnalysisResult is the normalized output of one analysis client.
type AnalysisResult struct {
	Label      string
	Confidence float64
	Details    Details
}

// NoMediaResult is the placeholder used when no media analysis ran.
func NoMediaResult() AnalysisResult {
	return AnalysisResult{Label: LabelNoMedia}
}

// InconclusiveResult is what the text client reports when the service omits a label.
func InconclusiveResult() AnalysisResult {
	return AnalysisResult{Label: LabelInconclusive}
}

// ErrorResult converts a backend failure into the error sentinel.
func ErrorResult(err error) AnalysisResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return AnalysisResult{
		Label:   LabelAnalysisError,
		Details: ErrorDetails{Message: msg},
	}
}

// IsSentinel reports whether r is a placeholder rather than a model output.
func (r AnalysisResult) IsSentinel() bool {
	switch r.Label {
	case LabelInconclusive, LabelAnalysisError, LabelNoMedia:
		return true
	}
	return false
}

// NormalizeConfidence maps a raw service score onto the 0-100 scale.
// Values in [0,1] are treated as fractions.
func NormalizeConfidence(raw float64) float64 {
	if math.IsNaN(raw) || raw <= 0 {
		return 0
	}
	if raw <= 1 {
		raw *= 100
	}
	return math.Min(raw, 100)
}

type analysisResultJSON struct {
	Label      string          `json:"label"`
	Confidence float64         `json:"confidence"`
	Kind       DetailsKind     `json:"kind,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// MarshalJSON stores the details variant tag next to the payload.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	out := analysisResultJSON{Label: r.Label, Confidence: r.Confidence}
	if r.Details != nil {
		raw, err := json.Marshal(r.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal %s details: %w", r.Details.Kind(), err)
		}
		out.Kind = r.Details.Kind()
		out.Details = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the details variant from its tag.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var in analysisResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	r.Label = in.Label
	r.Confidence = in.Confidence
	r.Details = nil

	if in.Kind == "" || len(in.Details) == 0 {
		return nil
	}

	var (
		details Details
		err     error
	)
	switch in.Kind {
	case DetailsText:
		var d TextDetails
		err = json.Unmarshal(in.Details, &d)
		details = d
	case DetailsImage:
		var d ImageDetails
		err = json.Unmarshal(in.Details, &d)
		details = d
	case DetailsVideo:
		var d VideoDetails
		err = json.Unmarshal(in.Details, &d)
		details = d
	case DetailsError:
		var d ErrorDetails
		err = json.Unmarshal(in.Details, &d)
		details = d
	default:
		return fmt.Errorf("unknown details kind %q", in.Kind)
	}
	if err != nil {
		return fmt.Errorf("unmarshal %s details: %w", in.Kind, err)
	}

	r.Details = details
	return nil
}
