package smile_xml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParseDomainObjects(t *testing.T) {
	doc, err := ParseDomainObjects(readFixture(t, "adam.xml"))
	require.NoError(t, err)
	require.NotNil(t, doc.Gateway)
	assert.Equal(t, "gw1", doc.Gateway.ID)
	assert.Equal(t, "smile_open_therm", doc.Gateway.VendorModel)
	assert.Len(t, doc.Locations, 3)
	assert.Len(t, doc.Rules, 3)
	assert.Len(t, doc.Groups, 1)
}

func TestParseRejectsDoctype(t *testing.T) {
	payload := []byte(`<?xml version="1.0"?><!DOCTYPE foo [<!ENTITY xxe SYSTEM "file:///etc/passwd">]><domain_objects><gateway id="x"/></domain_objects>`)
	_, err := ParseDomainObjects(payload)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseRejectsTruncated(t *testing.T) {
	_, err := ParseDomainObjects([]byte(`<domain_objects><gateway id="x">`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseRejectsWrongRoot(t *testing.T) {
	_, err := ParseDomainObjects([]byte(`<appliances></appliances>`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseRejectsEmptyBody(t *testing.T) {
	_, err := ParseDomainObjects([]byte("  \n"))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseMissingGateway(t *testing.T) {
	_, err := ParseDomainObjects([]byte(`<domain_objects><appliance id="a"/></domain_objects>`))
	assert.ErrorIs(t, err, ErrIncompleteResponse)
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("3.7.8")
	require.NoError(t, err)
	assert.Equal(t, Version{3, 7, 8}, v)

	v, err = ParseVersion("1.8")
	require.NoError(t, err)
	assert.Equal(t, Version{1, 8, 0}, v)

	v, err = ParseVersion("4.4.2-beta1")
	require.NoError(t, err)
	assert.Equal(t, Version{4, 4, 2}, v)

	_, err = ParseVersion("garbage")
	assert.Error(t, err)

	assert.True(t, Version{1, 8, 0}.Before(Version{3, 0, 0}))
	assert.False(t, Version{3, 7, 8}.Before(Version{3, 7, 8}))
}
