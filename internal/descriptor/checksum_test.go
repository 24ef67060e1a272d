package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumMatchesKnownVectors(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{
			body: "pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/0/*)",
			want: "32jmvyn7",
		},
		{
			body: "pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/1/*)",
			want: "q7h633rx",
		},
		{
			body: "sh(wpkh(xpub6CvvN4zrkrfXkSixaqSfG3dhqQEpd56sWLjzPjtk2sFEJHymSZXcFaC78fMYZ9cDrHVSRpCiQuV9yvgKw6CZF5PorLr5uQiSUStStZjpSSV/0/*))",
			want: "657qlqhe",
		},
	}

	for _, tc := range cases {
		got, err := checksum(tc.body)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestVerifyChecksumAcceptsValidSuffix(t *testing.T) {
	body, err := verifyChecksum("pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/0/*)#32jmvyn7")
	require.NoError(t, err)
	assert.Equal(t, "pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/0/*)", body)
}

func TestVerifyChecksumRejectsWrongSuffix(t *testing.T) {
	_, err := verifyChecksum("pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/0/*)#deadbeef")
	require.Error(t, err)
}

func TestVerifyChecksumAcceptsMissingSuffix(t *testing.T) {
	body, err := verifyChecksum("pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/0/*)")
	require.NoError(t, err)
	assert.Equal(t, "pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/0/*)", body)
}

func TestWithChecksumRoundTrips(t *testing.T) {
	body := "pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/1/*)"
	full, err := withChecksum(body)
	require.NoError(t, err)
	assert.Equal(t, body+"#q7h633rx", full)

	roundTripped, err := verifyChecksum(full)
	require.NoError(t, err)
	assert.Equal(t, body, roundTripped)
}

func TestChecksumRejectsInvalidCharacter(t *testing.T) {
	_, err := checksum("pkh(xpubé)")
	require.Error(t, err)
}
