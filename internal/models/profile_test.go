package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoderProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile EncoderProfile
		wantErr string
	}{
		{
			name: "valid video only",
			profile: EncoderProfile{
				Container:     ContainerHLS,
				VideoProfiles: []VideoProfile{{Codec: "h264"}},
			},
		},
		{
			name: "valid audio only",
			profile: EncoderProfile{
				AudioProfiles: []AudioProfile{{Codec: "aac"}},
			},
		},
		{
			name:    "no renditions",
			profile: EncoderProfile{Container: ContainerHLS},
			wantErr: "at least one video or audio rendition",
		},
		{
			name: "unknown container",
			profile: EncoderProfile{
				Container:     "avi",
				VideoProfiles: []VideoProfile{{Codec: "h264"}},
			},
			wantErr: `unknown container "avi"`,
		},
		{
			name: "video profile missing codec",
			profile: EncoderProfile{
				VideoProfiles: []VideoProfile{{Bitrate: 5000}},
			},
			wantErr: "codec is required",
		},
		{
			name: "audio profile missing codec",
			profile: EncoderProfile{
				VideoProfiles: []VideoProfile{{Codec: "h264"}},
				AudioProfiles: []AudioProfile{{Bitrate: 128}},
			},
			wantErr: "codec is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var cfgErr ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestEncoderProfile_WantsSDR(t *testing.T) {
	p := EncoderProfile{VideoProfiles: []VideoProfile{
		{Codec: "h264"},
		{Codec: "h264", ConvertHDRToSDR: true},
	}}
	assert.True(t, p.WantsSDR())

	p.VideoProfiles[1].ConvertHDRToSDR = false
	assert.False(t, p.WantsSDR())
}

func TestConfigurationError_Message(t *testing.T) {
	err := ConfigurationError{Field: "container", Message: "bad"}
	assert.Equal(t, "configuration error on field container: bad", err.Error())
}
