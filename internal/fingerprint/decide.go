package fingerprint

import "github.com/kodflow/indexwatch/internal/record"

// Reason is a single cause for invalidating the index.
type Reason string

const (
	ReasonModelChange   Reason = "model_change"
	ReasonVersionChange Reason = "version_change"
	ReasonConfigChange  Reason = "config_change"
	ReasonMissingStamp  Reason = "missing_stamp"
)

// Decision is the outcome of comparing the current fingerprint against the
// stored health record.
type Decision struct {
	Invalidate bool
	Reasons    []Reason
}

// Decide compares current against the stored record. stored == nil means no
// trustworthy record exists; in that case existing artifacts cannot be
// proven to match the current settings and must go, while a fresh install
// (no artifacts either) needs no invalidation.
func Decide(stored *record.Health, current Fingerprint, artifactsExist bool) Decision {
	if stored == nil {
		if artifactsExist {
			return Decision{Invalidate: true, Reasons: []Reason{ReasonMissingStamp}}
		}
		return Decision{}
	}

	var reasons []Reason
	if stored.Model != current.Model {
		reasons = append(reasons, ReasonModelChange)
	}
	if stored.IndexerVersion != current.IndexerVersion {
		reasons = append(reasons, ReasonVersionChange)
	}
	if stored.ConfigHash != current.ConfigHash {
		reasons = append(reasons, ReasonConfigChange)
	}
	return Decision{Invalidate: len(reasons) > 0, Reasons: reasons}
}

// DecideLegacy handles the pre-record single-field stamp, which recorded
// only the model name. It is compared on model alone; the caller discards
// the stamp afterwards regardless of the outcome.
func DecideLegacy(legacyModel string, current Fingerprint) Decision {
	if legacyModel != current.Model {
		return Decision{Invalidate: true, Reasons: []Reason{ReasonModelChange}}
	}
	return Decision{}
}
