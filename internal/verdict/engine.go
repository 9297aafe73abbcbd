package verdict

import (
	"strings"

	"TruthPost/internal/domain"
)

const rejectFakeScore = 0.5

// Engine turns the text and media results into a final status.
// Rules run in order: reject, then approve, otherwise pending.
type Engine struct {
	// ApproveTextOnly lets submissions without media approve on a clean text result.
	ApproveTextOnly bool
}

// New builds an engine.
func New(approveTextOnly bool) Engine {
	return Engine{ApproveTextOnly: approveTextOnly}
}

// Decide is deterministic in its inputs. hasMedia is true only when a media
// analysis was actually dispatched.
func (e Engine) Decide(text, media domain.AnalysisResult, hasMedia bool) domain.Status {
	if shouldReject(text, media) {
		return domain.StatusRejected
	}
	if e.shouldApprove(text, media, hasMedia) {
		return domain.StatusApproved
	}
	return domain.StatusPending
}

func shouldReject(text, media domain.AnalysisResult) bool {
	if d, ok := media.Details.(domain.ImageDetails); ok && d.FakeScore > rejectFakeScore {
		return true
	}
	if contains(media.Label, "manipulated") {
		return true
	}
	return text.Label != domain.LabelInconclusive && contains(text.Label, "fake")
}

func (e Engine) shouldApprove(text, media domain.AnalysisResult, hasMedia bool) bool {
	switch {
	case text.Label == domain.LabelInconclusive:
		return false
	case contains(text.Label, "error"), contains(media.Label, "error"):
		return false
	case contains(text.Label, "manipulated"), contains(media.Label, "manipulated"):
		return false
	case contains(text.Label, "fake"):
		return false
	}

	if !hasMedia {
		return e.ApproveTextOnly
	}
	return scoresAgree(media.Details)
}

// scoresAgree requires the media model's own scores to back an authentic label.
// Only image results carry a real/fake split.
func scoresAgree(details domain.Details) bool {
	switch d := details.(type) {
	case domain.ImageDetails:
		return d.RealScore > d.FakeScore
	default:
		return false
	}
}

func contains(label, needle string) bool {
	return strings.Contains(strings.ToLower(label), needle)
}
