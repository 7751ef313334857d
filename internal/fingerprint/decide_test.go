package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodflow/indexwatch/internal/record"
)

func storedRecord() *record.Health {
	return &record.Health{Model: "nomic-embed-text", IndexerVersion: "1.2.3", ConfigHash: "H1", DaemonPID: 100}
}

func TestDecide_MatchingFingerprintDoesNotInvalidate(t *testing.T) {
	current := Fingerprint{Model: "nomic-embed-text", IndexerVersion: "1.2.3", ConfigHash: "H1"}
	d := Decide(storedRecord(), current, true)
	assert.False(t, d.Invalidate)
	assert.Empty(t, d.Reasons)
}

func TestDecide_SingleFieldChangeReportsExactReason(t *testing.T) {
	base := Fingerprint{Model: "nomic-embed-text", IndexerVersion: "1.2.3", ConfigHash: "H1"}

	cases := []struct {
		name   string
		mutate func(*Fingerprint)
		want   Reason
	}{
		{"model", func(f *Fingerprint) { f.Model = "mxbai-embed-large" }, ReasonModelChange},
		{"version", func(f *Fingerprint) { f.IndexerVersion = "1.3.0" }, ReasonVersionChange},
		{"config", func(f *Fingerprint) { f.ConfigHash = "H2" }, ReasonConfigChange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			current := base
			tc.mutate(&current)
			d := Decide(storedRecord(), current, true)
			require.True(t, d.Invalidate)
			require.Equal(t, []Reason{tc.want}, d.Reasons)
		})
	}
}

func TestDecide_AllFieldsChangedAccumulatesReasons(t *testing.T) {
	current := Fingerprint{Model: "other", IndexerVersion: "9.9.9", ConfigHash: "H9"}
	d := Decide(storedRecord(), current, true)
	require.True(t, d.Invalidate)
	assert.ElementsMatch(t, []Reason{ReasonModelChange, ReasonVersionChange, ReasonConfigChange}, d.Reasons)
}

func TestDecide_NoRecordWithArtifactsIsDistrusted(t *testing.T) {
	current := Fingerprint{Model: "nomic-embed-text", IndexerVersion: "1.2.3", ConfigHash: "H1"}
	d := Decide(nil, current, true)
	require.True(t, d.Invalidate)
	require.Equal(t, []Reason{ReasonMissingStamp}, d.Reasons)
}

func TestDecide_FreshInstallDoesNotInvalidate(t *testing.T) {
	current := Fingerprint{Model: "nomic-embed-text", IndexerVersion: "1.2.3", ConfigHash: "H1"}
	d := Decide(nil, current, false)
	assert.False(t, d.Invalidate)
}

func TestDecideLegacy_ComparesOnModelOnly(t *testing.T) {
	current := Fingerprint{Model: "nomic-embed-text", IndexerVersion: "1.2.3", ConfigHash: "H1"}

	d := DecideLegacy("nomic-embed-text", current)
	assert.False(t, d.Invalidate)

	d = DecideLegacy("mxbai-embed-large", current)
	require.True(t, d.Invalidate)
	require.Equal(t, []Reason{ReasonModelChange}, d.Reasons)
}
