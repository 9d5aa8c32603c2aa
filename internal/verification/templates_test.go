package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ministryofjustice/offender-case-notes/internal/alerts"
)

func TestSubTypeDescription(t *testing.T) {
	beforeCutover := descriptionCutover.Add(-time.Minute)
	afterCutover := descriptionCutover.Add(time.Minute)

	tests := []struct {
		name      string
		code      string
		desc      string
		createdAt time.Time
		want      string
	}{
		{
			name:      "CPC created before cutover keeps old wording",
			code:      "CPC",
			desc:      "CPC",
			createdAt: beforeCutover,
			want:      "PPRC",
		},
		{
			name:      "CPC created after cutover uses current wording",
			code:      "CPC",
			desc:      "CPC",
			createdAt: afterCutover,
			want:      "CPC",
		},
		{
			name:      "ONCR created before cutover keeps old wording",
			code:      "ONCR",
			desc:      "Offender no-contact request",
			createdAt: beforeCutover,
			want:      "No-contact request",
		},
		{
			name:      "CPC created exactly at cutover uses current wording",
			code:      "CPC",
			desc:      "CPC",
			createdAt: descriptionCutover,
			want:      "CPC",
		},
		{
			name:      "unrelated sub-type is unaffected by the cutover",
			code:      "XA",
			desc:      "Arsonist",
			createdAt: beforeCutover,
			want:      "Arsonist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := alerts.Alert{
				SubType:   alerts.CodedDescription{Code: tt.code, Description: tt.desc},
				CreatedAt: tt.createdAt,
			}
			assert.Equal(t, tt.want, subTypeDescription(a))
		})
	}
}

func TestWording(t *testing.T) {
	a := alerts.Alert{
		Type:      alerts.CodedDescription{Code: "X", Description: "Security"},
		SubType:   alerts.CodedDescription{Code: "XA", Description: "Arsonist"},
		CreatedAt: descriptionCutover.Add(time.Hour),
	}
	assert.Equal(t, "Alert Security and Arsonist made active.", activeText(a))
	assert.Equal(t, "Alert Security and Arsonist made inactive.", inactiveText(a))
}
